package terminal

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/corerun/agentcore/internal/agent"
)

func TestCommandValidatorClassifiesTiers(t *testing.T) {
	v := NewCommandValidator()

	cases := []struct {
		command  string
		expected Classification
	}{
		{"echo hello", Allowed},
		{"ls -la && rm file.txt", NeedsConfirmation},
		{"cat a.txt | grep foo", NeedsConfirmation},
		{"rm -rf /", Forbidden},
		{"shutdown now", Forbidden},
		{"", Forbidden},
	}

	for _, c := range cases {
		got, _ := v.Classify(c.command)
		if got != c.expected {
			t.Errorf("Classify(%q) = %s, want %s", c.command, got, c.expected)
		}
	}
}

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return raw
}

func TestTerminalRunsAllowedCommand(t *testing.T) {
	dir := t.TempDir()
	tool, err := New(agent.DefaultTerminalConfig(), agent.SafetyModeConfirm, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "echo hi"}))
	if err != nil || !res.Success {
		t.Fatalf("execute failed: %v %+v", err, res)
	}
	if !strings.Contains(res.Output, "\"exit_code\": 0") {
		t.Fatalf("unexpected output: %s", res.Output)
	}
	if !strings.Contains(res.Output, "hi") {
		t.Fatalf("missing stdout content: %s", res.Output)
	}
}

func TestTerminalBlocksForbiddenCommand(t *testing.T) {
	dir := t.TempDir()
	tool, err := New(agent.DefaultTerminalConfig(), agent.SafetyModeYolo, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "rm -rf /"}))
	if err != nil {
		t.Fatalf("Execute returned hard error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected forbidden command to fail")
	}
}

func TestTerminalRequiresConfirmationInConfirmMode(t *testing.T) {
	dir := t.TempDir()
	tool, err := New(agent.DefaultTerminalConfig(), agent.SafetyModeConfirm, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "echo a | grep a"}))
	if err != nil {
		t.Fatalf("Execute returned hard error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failure with no confirmation hook configured")
	}
}

func TestTerminalConfirmHookApproves(t *testing.T) {
	dir := t.TempDir()
	approved := false
	confirm := func(ctx context.Context, command, reason string) (bool, error) {
		approved = true
		return true, nil
	}
	tool, err := New(agent.DefaultTerminalConfig(), agent.SafetyModeConfirm, dir, confirm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "echo a | grep a"}))
	if err != nil || !res.Success {
		t.Fatalf("execute failed: %v %+v", err, res)
	}
	if !approved {
		t.Fatalf("confirm hook was not invoked")
	}
}

func TestTerminalYoloSkipsConfirmation(t *testing.T) {
	dir := t.TempDir()
	tool, err := New(agent.DefaultTerminalConfig(), agent.SafetyModeYolo, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "echo a | grep a"}))
	if err != nil || !res.Success {
		t.Fatalf("execute failed in yolo mode: %v %+v", err, res)
	}
}

func TestTerminalRateLimitsCommandStarts(t *testing.T) {
	dir := t.TempDir()
	cfg := agent.DefaultTerminalConfig()
	cfg.RateLimit = 1000 // generous enough not to flake, just exercises the limiter path
	tool, err := New(cfg, agent.SafetyModeYolo, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{"command": "echo hi"}))
		if err != nil || !res.Success {
			t.Fatalf("execute %d failed: %v %+v", i, err, res)
		}
	}
}

func TestTerminalRateLimitRejectsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	cfg := agent.DefaultTerminalConfig()
	cfg.RateLimit = 0.001 // one command every ~1000s, so the second call must wait
	tool, err := New(cfg, agent.SafetyModeYolo, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if res, err := tool.Execute(ctx, mustArgs(t, map[string]any{"command": "echo hi"})); err != nil || !res.Success {
		t.Fatalf("first execute failed: %v %+v", err, res)
	}
	cancel()

	res, err := tool.Execute(ctx, mustArgs(t, map[string]any{"command": "echo hi"}))
	if err != nil {
		t.Fatalf("Execute returned hard error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected rate-limit wait on a canceled context to fail")
	}
}

func TestTerminalTimeout(t *testing.T) {
	dir := t.TempDir()
	cfg := agent.DefaultTerminalConfig()
	tool, err := New(cfg, agent.SafetyModeYolo, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tool.Execute(context.Background(), mustArgs(t, map[string]any{
		"command": "sleep 5", "timeout_seconds": 1,
	}))
	if err != nil {
		t.Fatalf("Execute returned hard error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected timeout failure")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("unexpected error: %s", res.Error)
	}
}
