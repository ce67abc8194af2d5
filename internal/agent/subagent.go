package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corerun/agentcore/internal/persistence"
	"github.com/corerun/agentcore/internal/quota"
	"github.com/corerun/agentcore/internal/telemetry"
)

const subagentSchema = `{
  "type": "object",
  "properties": {
    "label": {"type": "string", "description": "short human-readable name for this subagent"},
    "task_prompt": {"type": "string", "description": "the task the subagent should perform"},
    "summary_prompt": {"type": "string", "description": "prompt used to summarize findings; defaults to a generic summary request"},
    "allowed_tools": {"type": "array", "items": {"type": "string"}, "description": "restrict the subagent to this tool subset"},
    "max_turns": {"type": "integer", "description": "per-subagent turn budget, 1-50"}
  },
  "required": ["label", "task_prompt"]
}`

const defaultSummaryPrompt = "Summarize your findings concisely"

// subagentInput is the parsed form of the subagent tool's call arguments.
type subagentInput struct {
	Label         string   `json:"label"`
	TaskPrompt    string   `json:"task_prompt"`
	SummaryPrompt string   `json:"summary_prompt"`
	AllowedTools  []string `json:"allowed_tools"`
	MaxTurns      int      `json:"max_turns"`
}

func (in subagentInput) validate() error {
	if strings.TrimSpace(in.Label) == "" {
		return ConfigError("subagent: label must not be empty")
	}
	if strings.TrimSpace(in.TaskPrompt) == "" {
		return ConfigError("subagent: task_prompt must not be empty")
	}
	if in.MaxTurns != 0 && (in.MaxTurns < 1 || in.MaxTurns > 50) {
		return ConfigError("subagent: max_turns must be in [1, 50], got %d", in.MaxTurns)
	}
	for _, name := range in.AllowedTools {
		if name == subagentToolName {
			return ConfigError("subagent: allowed_tools cannot have 'subagent' in allowed_tools")
		}
	}
	return nil
}

// SubagentTool is the recursive-spawn meta-tool: it builds a child Agent
// sharing the parent's provider and a filtered view of the parent's
// registry, runs the task prompt followed by a summarization prompt, and
// reports the summary back as this call's ToolResult.
type SubagentTool struct {
	provider       Provider
	parentRegistry *ToolRegistry
	parentConfig   AgentConfig
	quota          quota.Tracker
	currentDepth   int
	store          persistence.Store
	parentConvID   string
	hooks          telemetry.Hooks
}

// NewSubagentTool constructs the depth-0 subagent tool for a root agent's
// registry. store and hooks may be nil, in which case persistence and
// telemetry are both no-ops.
func NewSubagentTool(provider Provider, parentRegistry *ToolRegistry, parentConfig AgentConfig, tracker quota.Tracker, store persistence.Store, hooks telemetry.Hooks) *SubagentTool {
	if hooks == nil {
		hooks = telemetry.NoOp{}
	}
	return &SubagentTool{
		provider:       provider,
		parentRegistry: parentRegistry,
		parentConfig:   parentConfig,
		quota:          tracker,
		currentDepth:   0,
		store:          store,
		hooks:          hooks,
	}
}

// nested builds the child subagent tool registered into a spawned child's
// own registry, one depth level deeper and carrying the same quota handle.
func (s *SubagentTool) nested(childRegistry *ToolRegistry, childConvID string) *SubagentTool {
	return &SubagentTool{
		provider:       s.provider,
		parentRegistry: childRegistry,
		parentConfig:   s.parentConfig,
		quota:          s.quota,
		currentDepth:   s.currentDepth + 1,
		store:          s.store,
		parentConvID:   childConvID,
		hooks:          s.hooks,
	}
}

func (s *SubagentTool) Name() string        { return subagentToolName }
func (s *SubagentTool) Description() string { return "Spawn a focused subagent to perform a bounded task and return a summary of its findings." }
func (s *SubagentTool) Schema() json.RawMessage { return json.RawMessage(subagentSchema) }

func (s *SubagentTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var in subagentInput
	if err := json.Unmarshal(args, &in); err != nil {
		return NewToolFailure("invalid subagent arguments: %v", err), nil
	}
	if err := in.validate(); err != nil {
		return NewToolFailure("%s", err.Error()), nil
	}

	if err := s.quota.CheckAndReserve(); err != nil {
		s.hooks.Quota(ctx, telemetry.QuotaEvent{Label: in.Label, Reason: err.Error()})
		return NewToolFailure("quota exhausted: %v", err), nil
	}

	maxDepth := s.parentConfig.Subagent.MaxDepth
	if s.currentDepth >= maxDepth {
		return NewToolFailure("Maximum subagent recursion depth (%d) exceeded", maxDepth), nil
	}

	childRegistry, err := s.buildChildRegistry(in.AllowedTools)
	if err != nil {
		return NewToolFailure("%s", err.Error()), nil
	}

	maxTurns := in.MaxTurns
	if maxTurns == 0 {
		maxTurns = s.parentConfig.Subagent.DefaultMaxTurns
	}
	childConfig := s.parentConfig
	childConfig.MaxTurns = maxTurns

	started := time.Now()
	s.hooks.Spawn(ctx, telemetry.SpawnEvent{Label: in.Label, Depth: s.currentDepth + 1, TaskCount: 1})

	recordID := persistence.NewID()
	childRegistry.Register(s.nested(childRegistry, recordID))

	child, err := New(childConfig, s.provider, childRegistry)
	if err != nil {
		s.hooks.Error(ctx, telemetry.ErrorEvent{Label: in.Label, Depth: s.currentDepth + 1, Err: err})
		return NewToolFailure("failed to construct subagent: %v", err), nil
	}

	if _, err := child.Execute(ctx, in.TaskPrompt); err != nil {
		s.hooks.Error(ctx, telemetry.ErrorEvent{Label: in.Label, Depth: s.currentDepth + 1, Err: err})
		s.persistCompleted(child, in, recordID, persistence.StatusError, started)
		return NewToolFailure("subagent task failed: %v", err), nil
	}

	summaryPrompt := in.SummaryPrompt
	if strings.TrimSpace(summaryPrompt) == "" {
		summaryPrompt = defaultSummaryPrompt
	}
	summary, err := child.Execute(ctx, summaryPrompt)
	if err != nil {
		s.hooks.Error(ctx, telemetry.ErrorEvent{Label: in.Label, Depth: s.currentDepth + 1, Err: err})
		s.persistCompleted(child, in, recordID, persistence.StatusError, started)
		return NewToolFailure("subagent summary failed: %v", err), nil
	}

	turnsUsed := child.TurnsUsed()
	status := persistence.StatusComplete
	maxTurnsReached := turnsUsed >= maxTurns
	if maxTurnsReached {
		status = persistence.StatusIncomplete
	}

	usage := child.conversation.usage
	if err := s.quota.RecordExecution(int64(usage.TotalTokens)); err != nil {
		s.hooks.Quota(ctx, telemetry.QuotaEvent{Label: in.Label, Reason: err.Error()})
	}

	result := NewToolSuccess(summary)
	result.WithMetadata("subagent_label", in.Label)
	result.WithMetadata("recursion_depth", fmt.Sprintf("%d", s.currentDepth+1))
	result.WithMetadata("completion_status", string(status))
	result.WithMetadata("turns_used", fmt.Sprintf("%d", turnsUsed))
	if maxTurnsReached {
		result.WithMetadata("max_turns_reached", "true")
	}
	if usage.TotalTokens > 0 {
		result.WithMetadata("tokens_used", fmt.Sprintf("%d", usage.TotalTokens))
	}

	result.Truncate(s.parentConfig.Subagent.OutputMaxSize)
	if result.Truncated {
		s.hooks.Truncate(ctx, telemetry.TruncateEvent{
			Label:         in.Label,
			OriginalSize:  len(summary),
			TruncatedSize: len(result.Output),
		})
	}

	s.hooks.Complete(ctx, telemetry.CompleteEvent{
		Label:            in.Label,
		Depth:            s.currentDepth + 1,
		Success:          true,
		TurnsUsed:        turnsUsed,
		TokensUsed:       int64(usage.TotalTokens),
		DurationMillis:   time.Since(started).Milliseconds(),
		CompletionStatus: string(status),
	})

	s.persistCompleted(child, in, recordID, status, started)

	return result, nil
}

// buildChildRegistry drops "subagent" unconditionally, whitelisting to
// allowedTools when given, otherwise carrying over every other parent tool.
func (s *SubagentTool) buildChildRegistry(allowedTools []string) (*ToolRegistry, error) {
	if len(allowedTools) > 0 {
		return s.parentRegistry.CloneWithFilter(allowedTools)
	}
	return s.parentRegistry.CloneWithoutSubagent(), nil
}

func (s *SubagentTool) persistCompleted(child *Agent, in subagentInput, recordID string, status persistence.CompletionStatus, started time.Time) {
	if s.store == nil || !s.parentConfig.Subagent.PersistenceEnabled {
		return
	}
	completedAt := time.Now()
	record := persistence.ConversationRecord{
		ID:          recordID,
		ParentID:    s.parentConvID,
		Label:       in.Label,
		Depth:       s.currentDepth + 1,
		Messages:    child.conversation.Messages(),
		StartedAt:   started,
		CompletedAt: &completedAt,
		Metadata: persistence.RecordMetadata{
			TurnsUsed:        child.TurnsUsed(),
			TokensConsumed:   int64(child.conversation.usage.TotalTokens),
			CompletionStatus: status,
			MaxTurnsReached:  status == persistence.StatusIncomplete,
			TaskPrompt:       in.TaskPrompt,
			SummaryPrompt:    in.SummaryPrompt,
			AllowedTools:     in.AllowedTools,
		},
	}
	_ = s.store.Save(record)
}
