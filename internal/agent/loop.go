package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/corerun/agentcore/pkg/models"
)

// Agent binds a Conversation and a ToolRegistry to a Provider and drives
// them through the iterative model-call -> tool-call -> tool-result cycle
// described in the agent execution loop.
type Agent struct {
	config       AgentConfig
	provider     Provider
	registry     *ToolRegistry
	conversation *Conversation
}

// New constructs an Agent with an empty conversation seeded from cfg's
// conversation limits. MaxTurns <= 0 is rejected as a KindConfig error.
func New(cfg AgentConfig, provider Provider, registry *ToolRegistry) (*Agent, error) {
	cfg, err := sanitizeAgentConfig(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ConfigError("provider must not be nil")
	}
	if registry == nil {
		registry = NewToolRegistry()
	}
	return &Agent{
		config:       cfg,
		provider:     provider,
		registry:     registry,
		conversation: NewConversation(cfg.Conversation),
	}, nil
}

// NewWithSystemPrompt behaves like New but additionally prepends a system
// message built from (chatMode, safetyMode) via BuildSystemPrompt.
func NewWithSystemPrompt(cfg AgentConfig, provider Provider, registry *ToolRegistry, chatMode ChatMode, safetyMode SafetyMode) (*Agent, error) {
	a, err := New(cfg, provider, registry)
	if err != nil {
		return nil, err
	}
	a.conversation.AppendSystem(BuildSystemPrompt(chatMode, safetyMode))
	return a, nil
}

// Conversation exposes the agent's owned conversation log.
func (a *Agent) Conversation() *Conversation {
	return a.conversation
}

// Registry exposes the agent's tool registry.
func (a *Agent) Registry() *ToolRegistry {
	return a.registry
}

// Config returns the agent's sanitised configuration.
func (a *Agent) Config() AgentConfig {
	return a.config
}

// TurnsUsed counts the user-role messages appended to the conversation so
// far — the definition of "turn" used throughout the spec.
func (a *Agent) TurnsUsed() int {
	count := 0
	for _, msg := range a.conversation.Messages() {
		if msg.Role == models.RoleUser {
			count++
		}
	}
	return count
}

// Execute appends prompt as a user message and runs the loop to
// completion, returning the final assistant content.
//
//	append user_prompt to conversation
//	iteration = 0
//	loop:
//	    iteration += 1
//	    if iteration > max_turns:     return MaxIterationsExceeded
//	    if elapsed > timeout:         return Timeout
//	    tool_defs = registry.all_definitions()
//	    response  = provider.complete(conversation.messages(), tool_defs)
//	    message   = response.message
//	    if message.content is not None:
//	        append assistant(message.content) to conversation
//	    if message.tool_calls is None or empty:
//	        if message.content is not None:
//	            break
//	        else:
//	            return ProviderInvalidResponse
//	    for each tool_call in message.tool_calls:
//	        result = dispatch_tool_call(tool_call)
//	        append tool_result(tool_call.id, result.to_message()) to conversation
//	    continue
//	return last assistant content, or "No response from assistant"
func (a *Agent) Execute(ctx context.Context, prompt string) (string, error) {
	a.conversation.AppendUser(prompt)

	start := time.Now()
	timeout := a.config.Timeout()
	lastContent := ""

	iteration := 0
	for {
		iteration++
		if iteration > a.config.MaxTurns {
			return "", MaxIterationsExceededError(a.config.MaxTurns)
		}
		if timeout > 0 && time.Since(start) > timeout {
			return "", TimeoutError("agent exceeded %s timeout", timeout)
		}

		resp, err := a.provider.Complete(ctx, &CompletionRequest{
			Messages: a.conversation.Messages(),
			Tools:    a.registryTools(),
			Model:    "",
		})
		if err != nil {
			return "", ProviderError(err, "completion request failed")
		}

		message := resp.Message
		if resp.Usage != nil {
			a.conversation.UpdateFromProviderUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}

		if message.Content != "" {
			a.conversation.AppendAssistant(message.Content, message.ToolCalls)
			lastContent = message.Content
		} else if len(message.ToolCalls) > 0 {
			a.conversation.AppendAssistant("", message.ToolCalls)
		}

		if len(message.ToolCalls) == 0 {
			if message.Content != "" {
				break
			}
			return "", ProviderError(nil, "provider returned neither content nor tool calls")
		}

		for _, call := range message.ToolCalls {
			result, dispatchErr := a.dispatchToolCall(ctx, call)
			if dispatchErr != nil {
				return "", dispatchErr
			}
			result.Truncate(a.config.Tools.MaxOutputSize)
			a.conversation.AppendToolResult(call.ID, result.ToModelContent())
		}
	}

	if lastContent == "" {
		return "No response from assistant", nil
	}
	return lastContent, nil
}

// registryTools adapts the registry's current tool set into the Tool slice
// a Provider adapter needs to build its own wire-format schemas.
func (a *Agent) registryTools() []Tool {
	names := a.registry.Names()
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		if t, ok := a.registry.Get(name); ok {
			tools = append(tools, t)
		}
	}
	return tools
}

// dispatchToolCall looks up and invokes one tool call. A missing tool or a
// malformed argument payload is a hard error that terminates the loop; the
// tool's own operational failures come back as a *ToolResult and do not.
func (a *Agent) dispatchToolCall(ctx context.Context, call models.ToolCall) (*ToolResult, error) {
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		return nil, ToolError(nil, "tool not found: %s", call.Name)
	}

	if !json.Valid(call.Arguments) {
		return nil, ToolError(nil, "failed to parse tool arguments for %q", call.Name)
	}

	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		return nil, ToolError(err, "tool %q execution failed", call.Name)
	}
	return result, nil
}
