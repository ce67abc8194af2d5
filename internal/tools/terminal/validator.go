// Package terminal implements the terminal tool: a CommandValidator that
// classifies shell commands into allowed/needs_confirmation/forbidden tiers,
// and a Tool that runs allowed commands under a wall-clock timeout with
// capped stdout/stderr capture.
package terminal

import (
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/corerun/agentcore/internal/tools/security"
)

// Classification is a CommandValidator verdict.
type Classification string

const (
	Allowed           Classification = "allowed"
	NeedsConfirmation Classification = "needs_confirmation"
	Forbidden         Classification = "forbidden"
)

// forbiddenBinaries names base commands that are never permitted regardless
// of safety mode: they destroy state outside the workspace or the host
// itself.
var forbiddenBinaries = map[string]bool{
	"mkfs":     true,
	"reboot":   true,
	"shutdown": true,
	"halt":     true,
	"poweroff": true,
	"init":     true,
	"dd":       true,
}

// forbiddenSubstrings catches multi-token patterns a base-command check
// misses: fork bombs and root-targeted recursive deletes.
var forbiddenSubstrings = []string{
	":(){:|:&};:",
	"rm -rf /",
	"rm -rf /*",
	"rm -rf ~",
	"> /dev/sda",
}

// CommandValidator classifies a raw command string. It first checks the
// lower-cased raw text, quoted parts included, against forbiddenSubstrings;
// it then tokenises with go-shellwords and checks each token's base name
// against forbiddenBinaries; finally it falls back to
// security.AnalyzeCommandQuoteAware for shell-metacharacter risk (chaining,
// pipes, redirects, subshells, background execution).
type CommandValidator struct{}

// NewCommandValidator returns a CommandValidator with the package's default
// blacklist.
func NewCommandValidator() *CommandValidator {
	return &CommandValidator{}
}

// Classify returns the command's tier and, for anything other than
// Allowed, a human-readable reason.
func (v *CommandValidator) Classify(command string) (Classification, string) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return Forbidden, "empty command"
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range forbiddenSubstrings {
		if strings.Contains(lower, pattern) {
			return Forbidden, "matches blacklisted pattern: " + pattern
		}
	}

	parser := shellwords.NewParser()
	tokens, err := parser.Parse(trimmed)
	if err == nil {
		for _, tok := range tokens {
			base := baseName(tok)
			if forbiddenBinaries[strings.ToLower(base)] {
				return Forbidden, "blacklisted command: " + base
			}
		}
	}

	analysis := security.AnalyzeCommandQuoteAware(trimmed)
	if !analysis.IsSafe {
		return NeedsConfirmation, analysis.Reason
	}

	return Allowed, ""
}

func baseName(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.LastIndexAny(token, "/\\"); i >= 0 {
		token = token[i+1:]
	}
	return token
}
