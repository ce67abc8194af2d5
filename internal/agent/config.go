package agent

import "time"

// ChatMode selects which family of tools a registry exposes.
type ChatMode string

const (
	// ChatModePlanning is read-only: no mutating, spawning, or
	// process-executing tool is present.
	ChatModePlanning ChatMode = "planning"

	// ChatModeWrite exposes the full file toolset plus terminal and the
	// subagent meta-tools.
	ChatModeWrite ChatMode = "write"
)

// SafetyMode controls whether the terminal tool requires confirmation for
// dangerous commands.
type SafetyMode string

const (
	// SafetyModeConfirm routes needs_confirmation commands through a
	// caller-supplied confirmation hook.
	SafetyModeConfirm SafetyMode = "confirm"

	// SafetyModeYolo only blocks forbidden commands; needs_confirmation
	// commands run unprompted.
	SafetyModeYolo SafetyMode = "yolo"
)

// ToolLimits bounds tool output sizes.
type ToolLimits struct {
	MaxOutputSize   int
	MaxFileReadSize int
}

// DefaultToolLimits returns a 64KB output cap and a 10MB file-read cap.
func DefaultToolLimits() ToolLimits {
	return ToolLimits{MaxOutputSize: 64 * 1024, MaxFileReadSize: 10 * 1024 * 1024}
}

// TerminalConfig parameterises the terminal tool.
type TerminalConfig struct {
	DefaultMode    SafetyMode
	TimeoutSeconds int
	MaxStdoutBytes int
	MaxStderrBytes int

	// RateLimit caps how many commands per second the terminal tool will
	// start, smoothing out runaway shell-spawning loops. Zero disables
	// rate limiting entirely.
	RateLimit float64
}

// DefaultTerminalConfig returns confirm-mode, a 30s timeout, 32KB
// stdout/stderr caps, and no rate limit.
func DefaultTerminalConfig() TerminalConfig {
	return TerminalConfig{
		DefaultMode:    SafetyModeConfirm,
		TimeoutSeconds: 30,
		MaxStdoutBytes: 32 * 1024,
		MaxStderrBytes: 32 * 1024,
		RateLimit:      0,
	}
}

// SubagentConfig parameterises the subagent/parallel_subagent meta-tools.
type SubagentConfig struct {
	MaxDepth            int
	DefaultMaxTurns     int
	OutputMaxSize       int
	TelemetryEnabled    bool
	PersistenceEnabled  bool
	PersistencePath     string
}

// DefaultSubagentConfig returns a max recursion depth of 3, a default
// per-subagent turn budget of 10, and a 16KB subagent output cap.
func DefaultSubagentConfig() SubagentConfig {
	return SubagentConfig{
		MaxDepth:         3,
		DefaultMaxTurns:  10,
		OutputMaxSize:    16 * 1024,
		TelemetryEnabled: true,
	}
}

// AgentConfig is the pure value describing how an Agent's loop, conversation,
// tools, and subagents are bounded.
type AgentConfig struct {
	MaxTurns       int
	TimeoutSeconds int

	Conversation ConversationConfig
	Tools        ToolLimits
	Terminal     TerminalConfig
	Subagent     SubagentConfig
}

// DefaultAgentConfig returns a 25-turn budget with a 5 minute timeout.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxTurns:       25,
		TimeoutSeconds: 300,
		Conversation:   DefaultConversationConfig(),
		Tools:          DefaultToolLimits(),
		Terminal:       DefaultTerminalConfig(),
		Subagent:       DefaultSubagentConfig(),
	}
}

// sanitizeAgentConfig fills in zero-valued fields with defaults and returns
// a KindConfig error when MaxTurns is non-positive — the one field the spec
// requires the caller to set meaningfully.
func sanitizeAgentConfig(cfg AgentConfig) (AgentConfig, error) {
	if cfg.MaxTurns <= 0 {
		return cfg, ConfigError("max_turns must be > 0, got %d", cfg.MaxTurns)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultAgentConfig().TimeoutSeconds
	}
	cfg.Conversation = sanitizeConversationConfig(cfg.Conversation)
	if cfg.Tools.MaxOutputSize <= 0 {
		cfg.Tools.MaxOutputSize = DefaultToolLimits().MaxOutputSize
	}
	if cfg.Tools.MaxFileReadSize <= 0 {
		cfg.Tools.MaxFileReadSize = DefaultToolLimits().MaxFileReadSize
	}
	if cfg.Terminal.TimeoutSeconds <= 0 {
		cfg.Terminal.TimeoutSeconds = DefaultTerminalConfig().TimeoutSeconds
	}
	if cfg.Terminal.MaxStdoutBytes <= 0 {
		cfg.Terminal.MaxStdoutBytes = DefaultTerminalConfig().MaxStdoutBytes
	}
	if cfg.Terminal.MaxStderrBytes <= 0 {
		cfg.Terminal.MaxStderrBytes = DefaultTerminalConfig().MaxStderrBytes
	}
	if cfg.Subagent.MaxDepth <= 0 {
		cfg.Subagent.MaxDepth = DefaultSubagentConfig().MaxDepth
	}
	if cfg.Subagent.DefaultMaxTurns <= 0 {
		cfg.Subagent.DefaultMaxTurns = DefaultSubagentConfig().DefaultMaxTurns
	}
	if cfg.Subagent.OutputMaxSize <= 0 {
		cfg.Subagent.OutputMaxSize = DefaultSubagentConfig().OutputMaxSize
	}
	return cfg, nil
}

// Timeout returns the configured per-agent wall-clock budget as a
// time.Duration.
func (c AgentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
