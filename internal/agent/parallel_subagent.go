package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corerun/agentcore/internal/persistence"
	"github.com/corerun/agentcore/internal/quota"
	"github.com/corerun/agentcore/internal/telemetry"
)

const parallelSubagentSchema = `{
  "type": "object",
  "properties": {
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "task_prompt": {"type": "string"},
          "summary_prompt": {"type": "string"},
          "allowed_tools": {"type": "array", "items": {"type": "string"}},
          "max_turns": {"type": "integer"}
        },
        "required": ["label", "task_prompt"]
      }
    },
    "max_concurrent": {"type": "integer", "description": "defaults to 5"},
    "fail_fast": {"type": "boolean", "description": "defaults to false"}
  },
  "required": ["tasks"]
}`

const defaultMaxConcurrent = 5

type parallelTaskInput struct {
	Label         string   `json:"label"`
	TaskPrompt    string   `json:"task_prompt"`
	SummaryPrompt string   `json:"summary_prompt"`
	AllowedTools  []string `json:"allowed_tools"`
	MaxTurns      int      `json:"max_turns"`
}

type parallelSubagentInput struct {
	Tasks         []parallelTaskInput `json:"tasks"`
	MaxConcurrent int                 `json:"max_concurrent"`
	FailFast      bool                `json:"fail_fast"`
}

// taskResult mirrors the per-task aggregate the spec requires in the final
// JSON payload.
type taskResult struct {
	Label        string `json:"label"`
	Success      bool   `json:"success"`
	Output       string `json:"output,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	TokensUsed   int64  `json:"tokens_used"`
}

type parallelSubagentOutput struct {
	Results          []taskResult `json:"results"`
	TotalDurationMs  int64        `json:"total_duration_ms"`
	Successful       int          `json:"successful"`
	Failed           int          `json:"failed"`
}

// ParallelSubagentTool fans a batch of tasks out to independent child
// agents under a counting semaphore, preserving input task order in its
// aggregate result regardless of completion order.
type ParallelSubagentTool struct {
	provider       Provider
	parentRegistry *ToolRegistry
	parentConfig   AgentConfig
	quota          quota.Tracker
	currentDepth   int
	store          persistence.Store
	hooks          telemetry.Hooks
}

// NewParallelSubagentTool constructs the depth-0 parallel_subagent tool.
func NewParallelSubagentTool(provider Provider, parentRegistry *ToolRegistry, parentConfig AgentConfig, tracker quota.Tracker, store persistence.Store, hooks telemetry.Hooks) *ParallelSubagentTool {
	if hooks == nil {
		hooks = telemetry.NoOp{}
	}
	return &ParallelSubagentTool{
		provider:       provider,
		parentRegistry: parentRegistry,
		parentConfig:   parentConfig,
		quota:          tracker,
		currentDepth:   0,
		store:          store,
		hooks:          hooks,
	}
}

func (p *ParallelSubagentTool) Name() string { return parallelSubagentToolName }

func (p *ParallelSubagentTool) Description() string {
	return "Run a batch of independent subagent tasks concurrently, bounded by max_concurrent, and collect their results in input order."
}

func (p *ParallelSubagentTool) Schema() json.RawMessage {
	return json.RawMessage(parallelSubagentSchema)
}

func (p *ParallelSubagentTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var in parallelSubagentInput
	if err := json.Unmarshal(args, &in); err != nil {
		return NewToolFailure("invalid parallel_subagent arguments: %v", err), nil
	}
	if len(in.Tasks) == 0 {
		return NewToolFailure("parallel_subagent: tasks must not be empty"), nil
	}
	maxConcurrent := in.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	if err := p.quota.CheckAndReserve(); err != nil {
		p.hooks.Quota(ctx, telemetry.QuotaEvent{Label: "parallel_subagent", Reason: err.Error()})
		return NewToolFailure("quota exhausted: %v", err), nil
	}
	maxDepth := p.parentConfig.Subagent.MaxDepth
	if p.currentDepth >= maxDepth {
		return NewToolFailure("Maximum subagent recursion depth (%d) exceeded", maxDepth), nil
	}

	started := time.Now()
	p.hooks.Spawn(ctx, telemetry.SpawnEvent{Label: "parallel_subagent", Depth: p.currentDepth + 1, TaskCount: len(in.Tasks)})

	results := make([]taskResult, len(in.Tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	var stopMu sync.Mutex
	stopped := false
	launched := 0

	for i, task := range in.Tasks {
		stopMu.Lock()
		halt := stopped
		stopMu.Unlock()
		if halt {
			break
		}
		launched++

		idx, t := i, task
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					results[idx] = taskResult{Label: t.Label, Success: false, Error: fmt.Sprintf("panic: %v", r)}
				}
			}()

			res := p.runTask(gctx, t)
			results[idx] = res

			if in.FailFast && !res.Success {
				stopMu.Lock()
				stopped = true
				stopMu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	results = results[:launched]

	var totalTokens int64
	successful, failed := 0, 0
	for _, r := range results {
		if r.Success {
			successful++
		} else {
			failed++
		}
		totalTokens += r.TokensUsed
	}

	if err := p.quota.RecordExecution(totalTokens); err != nil {
		p.hooks.Quota(ctx, telemetry.QuotaEvent{Label: "parallel_subagent", Reason: err.Error()})
	}

	totalDuration := time.Since(started)
	p.hooks.Complete(ctx, telemetry.CompleteEvent{
		Label:          "parallel_subagent",
		Depth:          p.currentDepth + 1,
		Success:        failed == 0,
		Failed:         failed,
		TokensUsed:     totalTokens,
		DurationMillis: totalDuration.Milliseconds(),
	})

	out := parallelSubagentOutput{
		Results:         results,
		TotalDurationMs: totalDuration.Milliseconds(),
		Successful:      successful,
		Failed:          failed,
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return NewToolFailure("failed to serialize parallel_subagent results: %v", err), nil
	}
	return NewToolSuccess(string(payload)), nil
}

// runTask executes one task to completion: the task prompt, then (if
// present) a summary prompt, against a child whose registry is the
// allowed_tools filter or, absent one, a clone_without_parallel view so the
// child may still spawn its own subagent but not recurse into another
// parallel batch.
func (p *ParallelSubagentTool) runTask(ctx context.Context, t parallelTaskInput) taskResult {
	start := time.Now()
	result := taskResult{Label: t.Label}

	var childRegistry *ToolRegistry
	var err error
	if len(t.AllowedTools) > 0 {
		childRegistry, err = p.parentRegistry.CloneWithFilter(t.AllowedTools)
	} else {
		childRegistry = p.parentRegistry.CloneWithoutParallel()
	}
	if err != nil {
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	maxTurns := t.MaxTurns
	if maxTurns == 0 {
		maxTurns = p.parentConfig.Subagent.DefaultMaxTurns
	}
	childConfig := p.parentConfig
	childConfig.MaxTurns = maxTurns

	recordID := persistence.NewID()
	childRegistry.Register((&SubagentTool{
		provider:       p.provider,
		parentRegistry: childRegistry,
		parentConfig:   p.parentConfig,
		quota:          p.quota,
		currentDepth:   p.currentDepth + 1,
		store:          p.store,
		parentConvID:   recordID,
		hooks:          p.hooks,
	}))

	child, err := New(childConfig, p.provider, childRegistry)
	if err != nil {
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	output, err := child.Execute(ctx, t.TaskPrompt)
	if err != nil {
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	if strings.TrimSpace(t.SummaryPrompt) != "" {
		output, err = child.Execute(ctx, t.SummaryPrompt)
		if err != nil {
			result.Error = err.Error()
			result.DurationMs = time.Since(start).Milliseconds()
			return result
		}
	}

	result.Success = true
	result.Output = output
	result.TokensUsed = int64(child.conversation.usage.TotalTokens)
	result.DurationMs = time.Since(start).Milliseconds()

	if p.store != nil && p.parentConfig.Subagent.PersistenceEnabled {
		completedAt := time.Now()
		_ = p.store.Save(persistence.ConversationRecord{
			ID:          recordID,
			Depth:       p.currentDepth + 1,
			Label:       t.Label,
			Messages:    child.conversation.Messages(),
			StartedAt:   start,
			CompletedAt: &completedAt,
			Metadata: persistence.RecordMetadata{
				TurnsUsed:        child.TurnsUsed(),
				TokensConsumed:   int64(child.conversation.usage.TotalTokens),
				CompletionStatus: persistence.StatusComplete,
				TaskPrompt:       t.TaskPrompt,
				SummaryPrompt:    t.SummaryPrompt,
				AllowedTools:     t.AllowedTools,
			},
		})
	}

	return result
}
