// Package telemetry defines the structured event hooks a caller can supply
// to observe subagent spawning, completion, truncation, and quota pressure
// without the core depending on any particular logging or metrics backend.
package telemetry

import (
	"context"
	"log/slog"
)

// SpawnEvent is emitted when a subagent or parallel_subagent task begins.
type SpawnEvent struct {
	Label     string
	Depth     int
	TaskCount int // >1 for parallel_subagent
}

// CompleteEvent is emitted when a subagent (or a parallel_subagent batch)
// finishes, successfully or not.
type CompleteEvent struct {
	Label            string
	Depth            int
	Success          bool
	Failed           int
	TurnsUsed        int
	TokensUsed       int64
	DurationMillis   int64
	CompletionStatus string
}

// ErrorEvent is emitted when a subagent's execution returns a hard error.
type ErrorEvent struct {
	Label string
	Depth int
	Err   error
}

// TruncateEvent is emitted when a subagent's output is truncated against
// subagent.output_max_size.
type TruncateEvent struct {
	Label         string
	OriginalSize  int
	TruncatedSize int
}

// QuotaEvent is emitted when a quota check or record rejects an attempt.
type QuotaEvent struct {
	Label  string
	Reason string
}

// Hooks is the structured event sink the subagent meta-tools report
// through. Every method must tolerate concurrent calls: parallel_subagent
// invokes them from multiple goroutines.
type Hooks interface {
	Spawn(ctx context.Context, e SpawnEvent)
	Complete(ctx context.Context, e CompleteEvent)
	Error(ctx context.Context, e ErrorEvent)
	Truncate(ctx context.Context, e TruncateEvent)
	Quota(ctx context.Context, e QuotaEvent)
}

// NoOp discards every event. It is the default Hooks when a caller does not
// wire one in.
type NoOp struct{}

func (NoOp) Spawn(context.Context, SpawnEvent)        {}
func (NoOp) Complete(context.Context, CompleteEvent)  {}
func (NoOp) Error(context.Context, ErrorEvent)        {}
func (NoOp) Truncate(context.Context, TruncateEvent)  {}
func (NoOp) Quota(context.Context, QuotaEvent)        {}

// SlogHooks renders every event as a structured slog record: one line per
// event, named exactly after the event kind, with every field attached as a
// structured attribute so it survives JSON handler output unchanged. It is
// used only when a caller passes it in; runtime.NewRootAgent defaults to NoOp.
type SlogHooks struct {
	Logger *slog.Logger
}

// NewSlogHooks returns a SlogHooks writing through logger, or through
// slog.Default() when logger is nil.
func NewSlogHooks(logger *slog.Logger) SlogHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogHooks{Logger: logger}
}

func (h SlogHooks) Spawn(ctx context.Context, e SpawnEvent) {
	h.Logger.InfoContext(ctx, "subagent_spawn",
		slog.String("label", e.Label),
		slog.Int("depth", e.Depth),
		slog.Int("task_count", e.TaskCount),
	)
}

func (h SlogHooks) Complete(ctx context.Context, e CompleteEvent) {
	h.Logger.InfoContext(ctx, "subagent_complete",
		slog.String("label", e.Label),
		slog.Int("depth", e.Depth),
		slog.Bool("success", e.Success),
		slog.Int("failed", e.Failed),
		slog.Int("turns_used", e.TurnsUsed),
		slog.Int64("tokens_used", e.TokensUsed),
		slog.Int64("duration_ms", e.DurationMillis),
		slog.String("completion_status", e.CompletionStatus),
	)
}

func (h SlogHooks) Error(ctx context.Context, e ErrorEvent) {
	h.Logger.ErrorContext(ctx, "subagent_error",
		slog.String("label", e.Label),
		slog.Int("depth", e.Depth),
		slog.Any("error", e.Err),
	)
}

func (h SlogHooks) Truncate(ctx context.Context, e TruncateEvent) {
	h.Logger.WarnContext(ctx, "subagent_truncate",
		slog.String("label", e.Label),
		slog.Int("original_size", e.OriginalSize),
		slog.Int("truncated_size", e.TruncatedSize),
	)
}

func (h SlogHooks) Quota(ctx context.Context, e QuotaEvent) {
	h.Logger.WarnContext(ctx, "subagent_quota",
		slog.String("label", e.Label),
		slog.String("reason", e.Reason),
	)
}
