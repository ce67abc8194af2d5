// Package runtime wires the registry builder, the agent loop, the subagent
// meta-tools, and the optional persistence/telemetry adapters into a single
// ready-to-use root Agent. This is the core's outermost construction seam
// (component L): everything below it is independently testable, but a real
// caller wants one function that produces a fully composed agent.
package runtime

import (
	"fmt"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/persistence"
	"github.com/corerun/agentcore/internal/quota"
	"github.com/corerun/agentcore/internal/registrybuilder"
	"github.com/corerun/agentcore/internal/telemetry"
	"github.com/corerun/agentcore/internal/tools/terminal"
)

// Options parameterises root agent construction.
type Options struct {
	Config     agent.AgentConfig
	Provider   agent.Provider
	ChatMode   agent.ChatMode
	SafetyMode agent.SafetyMode
	Workspace  string
	Confirm    terminal.ConfirmFunc

	// Store is optional; when non-nil and cfg.Subagent.PersistenceEnabled,
	// every completed subagent emits a ConversationRecord.
	Store persistence.Store

	// Hooks is optional; defaults to telemetry.NoOp{}.
	Hooks telemetry.Hooks

	// QuotaLimits bounds the shared resource quota across the whole
	// subagent tree spawned from this root agent.
	QuotaLimits quota.Limits
}

// NewRootAgent builds a registry for (ChatMode, SafetyMode, Workspace),
// composes in subagent and parallel_subagent when ChatMode is write, seeds
// the system prompt, and returns an Agent ready for Execute.
func NewRootAgent(opts Options) (*agent.Agent, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("provider must not be nil")
	}

	registry, err := registrybuilder.Build(registrybuilder.Options{
		ChatMode:   opts.ChatMode,
		SafetyMode: opts.SafetyMode,
		Workspace:  opts.Workspace,
		Tools:      opts.Config.Tools,
		Terminal:   opts.Config.Terminal,
		Confirm:    opts.Confirm,
	})
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	hooks := opts.Hooks
	if hooks == nil {
		hooks = telemetry.NoOp{}
	}
	tracker := quota.New(opts.QuotaLimits)

	if opts.ChatMode == agent.ChatModeWrite {
		subagentTool := agent.NewSubagentTool(opts.Provider, registry, opts.Config, tracker, opts.Store, hooks)
		parallelTool := agent.NewParallelSubagentTool(opts.Provider, registry, opts.Config, tracker, opts.Store, hooks)
		registry.Register(subagentTool)
		registry.Register(parallelTool)
	}

	return agent.NewWithSystemPrompt(opts.Config, opts.Provider, registry, opts.ChatMode, opts.SafetyMode)
}
