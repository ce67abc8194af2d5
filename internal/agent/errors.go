package agent

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the typed error taxonomy surfaced by the agent
// loop and its collaborators.
type ErrorKind string

const (
	// KindConfig marks invalid construction input: zero max_turns, a
	// forbidden tool whitelist entry, an unknown tool name.
	KindConfig ErrorKind = "config"

	// KindMaxIterationsExceeded marks a loop that exceeded its max_turns.
	KindMaxIterationsExceeded ErrorKind = "max_iterations_exceeded"

	// KindTimeout marks a per-agent wall-clock breach.
	KindTimeout ErrorKind = "timeout"

	// KindProvider marks a provider call failure or an invalid response
	// (neither content nor tool calls).
	KindProvider ErrorKind = "provider"

	// KindTool marks a tool-not-found, argument parse failure, or an
	// unrecoverable error from a tool's execute.
	KindTool ErrorKind = "tool"

	// KindStorage marks a persistence adapter failure.
	KindStorage ErrorKind = "storage"

	// KindQuota marks quota exhaustion. Quota errors are surfaced as a
	// ToolResult error to the parent agent, never raised as a hard error.
	KindQuota ErrorKind = "quota"
)

// AgentError is the core's typed error taxonomy. Every hard error returned
// by the agent loop, registry, or adapters is an *AgentError so callers can
// switch on Kind.
type AgentError struct {
	Kind ErrorKind

	// Limit is populated for KindMaxIterationsExceeded.
	Limit int

	Message string
	Cause   error
}

func (e *AgentError) Error() string {
	if e.Kind == KindMaxIterationsExceeded {
		return fmt.Sprintf("%s: exceeded max turns (%d)", e.Kind, e.Limit)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// ConfigError constructs a KindConfig error.
func ConfigError(format string, args ...any) *AgentError {
	return &AgentError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// MaxIterationsExceededError constructs a KindMaxIterationsExceeded error
// naming the limit that was hit.
func MaxIterationsExceededError(limit int) *AgentError {
	return &AgentError{Kind: KindMaxIterationsExceeded, Limit: limit, Message: "max turns exceeded"}
}

// TimeoutError constructs a KindTimeout error.
func TimeoutError(format string, args ...any) *AgentError {
	return &AgentError{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// ProviderError constructs a KindProvider error, optionally wrapping cause.
func ProviderError(cause error, format string, args ...any) *AgentError {
	return &AgentError{Kind: KindProvider, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ToolError constructs a KindTool error, optionally wrapping cause.
func ToolError(cause error, format string, args ...any) *AgentError {
	return &AgentError{Kind: KindTool, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// StorageError constructs a KindStorage error, optionally wrapping cause.
func StorageError(cause error, format string, args ...any) *AgentError {
	return &AgentError{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// QuotaError constructs a KindQuota error. The subagent meta-tools do not
// construct one: they report quota exhaustion directly as a ToolResult
// failure for the parent agent.
func QuotaError(cause error, format string, args ...any) *AgentError {
	return &AgentError{Kind: KindQuota, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf reports the ErrorKind of err if it is (or wraps) an *AgentError.
func KindOf(err error) (ErrorKind, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
