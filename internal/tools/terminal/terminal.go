package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// ConfirmFunc is called for a needs_confirmation command when the tool's
// safety mode is confirm. It returns false (or an error) to refuse.
type ConfirmFunc func(ctx context.Context, command string, reason string) (bool, error)

// Tool implements the terminal tool: validates a command, optionally routes
// it through a confirmation hook, then runs it under a timeout with
// stdout/stderr capped independently.
type Tool struct {
	validator  *CommandValidator
	pathValid  tools.PathValidator
	safetyMode agent.SafetyMode
	cfg        agent.TerminalConfig
	confirm    ConfirmFunc
	limiter    *rate.Limiter
}

// New constructs the terminal tool scoped to workDir. confirm may be nil;
// in confirm safety mode a nil confirm hook refuses every
// needs_confirmation command. When cfg.RateLimit is positive, command
// starts are throttled to that many per second with a burst of one.
func New(cfg agent.TerminalConfig, safetyMode agent.SafetyMode, workDir string, confirm ConfirmFunc) (*Tool, error) {
	pv, err := tools.NewPathValidator(workDir)
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Tool{
		validator:  NewCommandValidator(),
		pathValid:  pv,
		safetyMode: safetyMode,
		cfg:        cfg,
		confirm:    confirm,
		limiter:    limiter,
	}, nil
}

func (t *Tool) Name() string { return "terminal" }

func (t *Tool) Description() string {
	return "Run a shell command in the workspace. Dangerous commands are blocked or require confirmation depending on safety mode."
}

func (t *Tool) Schema() json.RawMessage {
	payload, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command":         map[string]any{"type": "string"},
			"cwd":             map[string]any{"type": "string", "description": "directory relative to the workspace, default '.'"},
			"timeout_seconds": map[string]any{"type": "integer", "minimum": 1},
		},
		"required": []string{"command"},
	})
	return json.RawMessage(payload)
}

type terminalOutput struct {
	ExitCode        int    `json:"exit_code"`
	Stdout          string `json:"stdout"`
	Stderr          string `json:"stderr"`
	StdoutTruncated bool   `json:"stdout_truncated,omitempty"`
	StderrTruncated bool   `json:"stderr_truncated,omitempty"`
}

func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Command        string `json:"command"`
		Cwd            string `json:"cwd"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return agent.NewToolFailure("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Command) == "" {
		return agent.NewToolFailure("command is required"), nil
	}

	class, reason := t.validator.Classify(input.Command)
	switch class {
	case Forbidden:
		return agent.NewToolFailure("command blocked: %s", reason), nil
	case NeedsConfirmation:
		if t.safetyMode != agent.SafetyModeYolo {
			if t.confirm == nil {
				return agent.NewToolFailure("confirmation required (%s) but no confirmation hook is configured", reason), nil
			}
			ok, err := t.confirm(ctx, input.Command, reason)
			if err != nil {
				return agent.NewToolFailure("confirmation hook failed: %v", err), nil
			}
			if !ok {
				return agent.NewToolFailure("confirmation refused: %s", reason), nil
			}
		}
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return agent.NewToolFailure("rate limit wait: %v", err), nil
		}
	}

	dir := "."
	if strings.TrimSpace(input.Cwd) != "" {
		dir = input.Cwd
	}
	resolvedDir, err := t.pathValid.Resolve(dir)
	if err != nil {
		return agent.NewToolFailure("cwd: %s", err.Error()), nil
	}

	timeout := time.Duration(t.cfg.TimeoutSeconds) * time.Second
	if input.TimeoutSeconds > 0 {
		requested := time.Duration(input.TimeoutSeconds) * time.Second
		if requested < timeout {
			timeout = requested
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", input.Command)
	cmd.Dir = resolvedDir

	stdout := newCappedBuffer(t.cfg.MaxStdoutBytes)
	stderr := newCappedBuffer(t.cfg.MaxStderrBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return agent.NewToolFailure("command timed out after %s", timeout), nil
	}

	out := terminalOutput{
		ExitCode:        exitCode(runErr),
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StdoutTruncated: stdout.truncated,
		StderrTruncated: stderr.truncated,
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return agent.NewToolFailure("encode result: %v", err), nil
	}

	result := agent.NewToolSuccess(string(payload))
	result.WithMetadata("exit_code", fmt.Sprintf("%d", out.ExitCode))
	return result, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// cappedBuffer is a concurrency-safe io.Writer that silently drops bytes
// once it reaches max, recording that it did.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max <= 0 {
		return b.buf.Write(p)
	}
	remaining := b.max - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
