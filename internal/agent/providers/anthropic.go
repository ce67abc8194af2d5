package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/pkg/models"
)

// AnthropicProvider implements agent.Provider against Anthropic's Messages
// API. Like OpenAIProvider it makes one blocking call per turn; the core's
// loop consumes a complete assistant message, not a token stream.
type AnthropicProvider struct {
	BaseProvider
	client       anthropic.Client
	configured   bool
	defaultModel string
}

// AnthropicConfig holds the settings needed to construct an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// NewAnthropicProvider validates config, applies defaults, and returns a
// ready-to-use provider.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		BaseProvider: NewBaseProvider("anthropic", config.MaxRetries, config.RetryDelay),
		client:       anthropic.NewClient(opts...),
		configured:   true,
		defaultModel: config.DefaultModel,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) SupportsTools() bool { return true }

func (p *AnthropicProvider) Models() ([]agent.ModelInfo, error) {
	return []agent.ModelInfo{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextWindow: 200000, SupportsVision: true},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextWindow: 200000, SupportsVision: true},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextWindow: 200000, SupportsVision: true},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", ContextWindow: 200000, SupportsVision: true},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextWindow: 200000, SupportsVision: true},
	}, nil
}

// Complete sends one Messages.New request, retrying retryable failures with
// BaseProvider's linear backoff, and folds the response's content blocks
// into a single models.Message.
func (p *AnthropicProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (*agent.CompletionResponse, error) {
	if !p.configured {
		return nil, NewProviderError("anthropic", req.Model, errors.New("anthropic provider not configured")).WithCode("authentication_error")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelOrDefault(req.Model)),
		Messages:  convertToAnthropicMessages(req.Messages),
		MaxTokens: int64(maxTokensOrDefault(req.MaxTokens)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertToAnthropicTools(req.Tools)
		if err != nil {
			return nil, NewProviderError("anthropic", req.Model, err)
		}
		params.Tools = tools
	}

	var resp *anthropic.Message
	err := p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, NewProviderError("anthropic", req.Model, err)
	}

	message := models.Message{Role: models.RoleAssistant}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			toolUse := block.AsToolUse()
			input, marshalErr := json.Marshal(toolUse.Input)
			if marshalErr != nil {
				return nil, NewProviderError("anthropic", req.Model, fmt.Errorf("marshal tool_use input: %w", marshalErr))
			}
			message.ToolCalls = append(message.ToolCalls, models.ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: input,
			})
		}
	}
	message.Content = text.String()

	usage := &models.TokenUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}

	return &agent.CompletionResponse{Message: message, Usage: usage}, nil
}

func (p *AnthropicProvider) modelOrDefault(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func maxTokensOrDefault(maxTokens int) int {
	if maxTokens <= 0 {
		return 4096
	}
	return maxTokens
}

// convertToAnthropicMessages maps our role model onto Anthropic's two-role
// message format: tool results are user-role content blocks, and assistant
// tool calls are tool_use content blocks within an assistant message.
func convertToAnthropicMessages(messages []models.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			continue
		case models.RoleTool:
			block := anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)
			result = append(result, anthropic.NewUserMessage(block))
		case models.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]any
				_ = json.Unmarshal(tc.Arguments, &input)
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			result = append(result, anthropic.NewAssistantMessage(content...))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func convertToAnthropicTools(tools []agent.Tool) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}
	return result, nil
}
