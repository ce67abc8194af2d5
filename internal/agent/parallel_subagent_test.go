package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corerun/agentcore/internal/quota"
)

func TestParallelSubagentRunsAllTasksInOrder(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewParallelSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(parallelSubagentInput{
		Tasks: []parallelTaskInput{
			{Label: "a", TaskPrompt: "task a"},
			{Label: "b", TaskPrompt: "task b"},
			{Label: "c", TaskPrompt: "task c"},
		},
	})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}

	var out parallelSubagentOutput
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		t.Fatalf("invalid output JSON: %v", err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.Results))
	}
	if out.Successful != 3 || out.Failed != 0 {
		t.Errorf("successful=%d failed=%d, want 3/0", out.Successful, out.Failed)
	}
	wantLabels := []string{"a", "b", "c"}
	for i, label := range wantLabels {
		if out.Results[i].Label != label {
			t.Errorf("results[%d].Label = %q, want %q (input order must be preserved)", i, out.Results[i].Label, label)
		}
		if !out.Results[i].Success {
			t.Errorf("results[%d] unexpectedly failed: %s", i, out.Results[i].Error)
		}
	}
}

func TestParallelSubagentRejectsEmptyTasks(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewParallelSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	args, _ := json.Marshal(parallelSubagentInput{Tasks: nil})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for empty tasks")
	}
}

func TestParallelSubagentDepthGuard(t *testing.T) {
	cfg := DefaultAgentConfig()
	cfg.Subagent.MaxDepth = 1
	tracker := quota.New(quota.Limits{})

	tool := &ParallelSubagentTool{
		provider:       echoProvider{},
		parentRegistry: NewToolRegistry(),
		parentConfig:   cfg,
		quota:          tracker,
		currentDepth:   1,
	}

	args, _ := json.Marshal(parallelSubagentInput{
		Tasks: []parallelTaskInput{{Label: "a", TaskPrompt: "task a"}},
	})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("depth guard must surface as ToolResult, not a hard error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure at max recursion depth")
	}
}

func TestParallelSubagentRespectsMaxConcurrentBound(t *testing.T) {
	tracker := quota.New(quota.Limits{})
	tool := NewParallelSubagentTool(echoProvider{}, NewToolRegistry(), DefaultAgentConfig(), tracker, nil, nil)

	tasks := make([]parallelTaskInput, 8)
	for i := range tasks {
		tasks[i] = parallelTaskInput{Label: "t", TaskPrompt: "task"}
	}
	args, _ := json.Marshal(parallelSubagentInput{Tasks: tasks, MaxConcurrent: 2})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	var out parallelSubagentOutput
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		t.Fatalf("invalid output JSON: %v", err)
	}
	if out.Successful != 8 {
		t.Errorf("successful = %d, want 8", out.Successful)
	}
}
