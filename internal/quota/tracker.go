// Package quota implements the shared resource tracker bounding the cost of
// an entire agent spawn tree: executions, cumulative tokens, and wall time.
package quota

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Limits configures the caps enforced by a Tracker. A zero value for any
// field means that cap is unset (unbounded).
type Limits struct {
	MaxExecutions int64
	MaxTotalTokens int64
	MaxTotalTime   time.Duration
}

// Usage is a point-in-time snapshot of a Tracker's counters.
type Usage struct {
	Executions  int64
	TotalTokens int64
	Elapsed     time.Duration
}

// Tracker is a cheap, copyable handle onto a set of shared atomic counters.
// Cloning a Tracker (by value, it has no pointer receiver requirement beyond
// the embedded *state) yields a handle that observes the same underlying
// counters, so every agent in a spawn tree shares one Tracker.
type Tracker struct {
	limits Limits
	state  *state
}

type state struct {
	executions  atomic.Int64
	totalTokens atomic.Int64
	startedAt   time.Time
}

// New constructs a Tracker with the given limits, starting its wall-clock
// budget now.
func New(limits Limits) Tracker {
	return Tracker{
		limits: limits,
		state:  &state{startedAt: time.Now()},
	}
}

// CheckAndReserve reports whether new work may begin under the configured
// caps. It does not mutate any counter; its role is to reject intent before
// work begins. Once any cap has been exceeded, CheckAndReserve fails
// permanently for the life of this tracker.
func (t Tracker) CheckAndReserve() error {
	if t.limits.MaxExecutions > 0 && t.state.executions.Load() >= t.limits.MaxExecutions {
		return fmt.Errorf("quota: execution limit reached (%d)", t.limits.MaxExecutions)
	}
	if t.limits.MaxTotalTokens > 0 && t.state.totalTokens.Load() >= t.limits.MaxTotalTokens {
		return fmt.Errorf("quota: token limit reached (%d)", t.limits.MaxTotalTokens)
	}
	if t.limits.MaxTotalTime > 0 && time.Since(t.state.startedAt) >= t.limits.MaxTotalTime {
		return fmt.Errorf("quota: time limit reached (%s)", t.limits.MaxTotalTime)
	}
	return nil
}

// RecordExecution atomically increments the execution count by one and adds
// tokensUsed to the running token total. The increment is committed even
// when it pushes a counter past its cap, so the tracker stays monotone; the
// returned error tells the caller this was the attempt that crossed the
// line, so the caller can surface a final-attempt failure.
func (t Tracker) RecordExecution(tokensUsed int64) error {
	execs := t.state.executions.Add(1)
	tokens := t.state.totalTokens.Add(tokensUsed)

	if t.limits.MaxExecutions > 0 && execs > t.limits.MaxExecutions {
		return fmt.Errorf("quota: execution limit exceeded (%d/%d)", execs, t.limits.MaxExecutions)
	}
	if t.limits.MaxTotalTokens > 0 && tokens > t.limits.MaxTotalTokens {
		return fmt.Errorf("quota: token limit exceeded (%d/%d)", tokens, t.limits.MaxTotalTokens)
	}
	if t.limits.MaxTotalTime > 0 && time.Since(t.state.startedAt) > t.limits.MaxTotalTime {
		return fmt.Errorf("quota: time limit exceeded (%s)", t.limits.MaxTotalTime)
	}
	return nil
}

// GetUsage returns a snapshot of the tracker's current counters.
func (t Tracker) GetUsage() Usage {
	return Usage{
		Executions:  t.state.executions.Load(),
		TotalTokens: t.state.totalTokens.Load(),
		Elapsed:     time.Since(t.state.startedAt),
	}
}

// RemainingExecutions reports the number of executions still permitted, or
// ok=false when no execution cap is configured.
func (t Tracker) RemainingExecutions() (remaining int64, ok bool) {
	if t.limits.MaxExecutions <= 0 {
		return 0, false
	}
	left := t.limits.MaxExecutions - t.state.executions.Load()
	if left < 0 {
		left = 0
	}
	return left, true
}

// RemainingTokens reports the number of tokens still permitted, or ok=false
// when no token cap is configured.
func (t Tracker) RemainingTokens() (remaining int64, ok bool) {
	if t.limits.MaxTotalTokens <= 0 {
		return 0, false
	}
	left := t.limits.MaxTotalTokens - t.state.totalTokens.Load()
	if left < 0 {
		left = 0
	}
	return left, true
}

// RemainingTime reports the wall-clock budget still remaining, or ok=false
// when no time cap is configured.
func (t Tracker) RemainingTime() (remaining time.Duration, ok bool) {
	if t.limits.MaxTotalTime <= 0 {
		return 0, false
	}
	left := t.limits.MaxTotalTime - time.Since(t.state.startedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}
