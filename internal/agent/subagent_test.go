package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/corerun/agentcore/internal/quota"
	"github.com/corerun/agentcore/pkg/models"
)

// echoProvider always answers with "echo:" plus the most recent user
// message, letting tests assert exactly which prompt produced a result.
type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == models.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return &CompletionResponse{
		Message: models.Message{Role: models.RoleAssistant, Content: "echo:" + last},
		Usage:   &models.TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}, nil
}

func (echoProvider) Models() ([]ModelInfo, error) { return nil, ErrNotSupported }
func (echoProvider) SupportsTools() bool          { return false }

func TestSubagentRunsTaskThenSummary(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(subagentInput{Label: "x", TaskPrompt: "do thing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != "echo:"+defaultSummaryPrompt {
		t.Errorf("output = %q, want the summary prompt's echo", result.Output)
	}
	if result.Metadata["subagent_label"] != "x" {
		t.Errorf("metadata label = %q, want x", result.Metadata["subagent_label"])
	}
	if result.Metadata["completion_status"] != "complete" {
		t.Errorf("completion_status = %q, want complete", result.Metadata["completion_status"])
	}
	if result.Metadata["turns_used"] != "2" {
		t.Errorf("turns_used = %q, want 2 (task prompt + summary prompt)", result.Metadata["turns_used"])
	}
}

func TestSubagentRejectsEmptyLabel(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(subagentInput{Label: "  ", TaskPrompt: "do thing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("validation failures must not be hard errors: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for empty label")
	}
	if !strings.Contains(result.Error, "label") {
		t.Errorf("error = %q, want it to mention label", result.Error)
	}
}

func TestSubagentRejectsSubagentInAllowedTools(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(subagentInput{Label: "x", TaskPrompt: "do thing", AllowedTools: []string{"subagent"}})
	result, _ := tool.Execute(context.Background(), args)
	if result.Success {
		t.Fatal("expected failure when allowed_tools contains subagent")
	}
}

func TestSubagentRejectsMaxTurnsOutOfRange(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(subagentInput{Label: "x", TaskPrompt: "do thing", MaxTurns: 51})
	result, _ := tool.Execute(context.Background(), args)
	if result.Success {
		t.Fatal("expected failure for max_turns out of [1,50]")
	}
}

func TestSubagentDepthGuard(t *testing.T) {
	cfg := DefaultAgentConfig()
	cfg.Subagent.MaxDepth = 1
	tracker := quota.New(quota.Limits{})

	tool := &SubagentTool{
		provider:       echoProvider{},
		parentRegistry: NewToolRegistry(),
		parentConfig:   cfg,
		quota:          tracker,
		currentDepth:   1,
	}

	args, _ := json.Marshal(subagentInput{Label: "x", TaskPrompt: "do thing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("depth guard must surface as ToolResult, not a hard error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure at max recursion depth")
	}
	if !strings.Contains(result.Error, "recursion depth") {
		t.Errorf("error = %q, want it to mention recursion depth", result.Error)
	}
}

func TestSubagentQuotaGuard(t *testing.T) {
	tracker := quota.New(quota.Limits{MaxExecutions: 1})
	_ = tracker.RecordExecution(0)

	tool := NewSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)
	args, _ := json.Marshal(subagentInput{Label: "x", TaskPrompt: "do thing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("quota exhaustion must surface as ToolResult, not a hard error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure once the execution quota is exhausted")
	}
}
