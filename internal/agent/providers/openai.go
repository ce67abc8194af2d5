package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/pkg/models"
)

// OpenAIProvider implements agent.Provider against OpenAI's chat completion
// API with a single blocking call per turn (the core's loop has no use for
// token-level streaming — see SPEC_FULL.md's Provider Adapter section).
type OpenAIProvider struct {
	BaseProvider
	client *openai.Client
}

// NewOpenAIProvider constructs an OpenAI provider. An empty apiKey yields a
// provider whose Complete always fails, so construction never needs to
// itself validate credentials.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	p := &OpenAIProvider{BaseProvider: NewBaseProvider("openai", 3, time.Second)}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) SupportsTools() bool { return true }

func (p *OpenAIProvider) Models() ([]agent.ModelInfo, error) {
	return []agent.ModelInfo{
		{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000, SupportsVision: true},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextWindow: 128000, SupportsVision: true},
		{ID: "gpt-4", Name: "GPT-4", ContextWindow: 8192, SupportsVision: false},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextWindow: 16385, SupportsVision: false},
	}, nil
}

// Complete sends one non-streaming chat completion request, retrying
// retryable failures with BaseProvider's linear backoff.
func (p *OpenAIProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (*agent.CompletionResponse, error) {
	if p.client == nil {
		return nil, NewProviderError("openai", req.Model, errors.New("OpenAI API key not configured")).WithCode("authentication_error")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: convertToOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToOpenAITools(req.Tools)
	}

	var resp openai.ChatCompletionResponse
	err := p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		return callErr
	})
	if err != nil {
		return nil, NewProviderError("openai", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", req.Model, errors.New("no choices returned"))
	}

	choice := resp.Choices[0].Message
	message := models.Message{
		Role:      models.RoleAssistant,
		Content:   choice.Content,
		ToolCalls: convertFromOpenAIToolCalls(choice.ToolCalls),
	}

	usage := &models.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	return &agent.CompletionResponse{Message: message, Usage: usage}, nil
}

func convertToOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case models.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					oaiMsg.ToolCalls[i] = openai.ToolCall{
						ID:   tc.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      tc.Name,
							Arguments: string(tc.Arguments),
						},
					}
				}
			}
			result = append(result, oaiMsg)
		case models.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		default:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		}
	}
	return result
}

func convertToOpenAITools(tools []agent.Tool) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(tool.Schema(), &schemaMap); err != nil {
			schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  schemaMap,
			},
		}
	}
	return result
}

func convertFromOpenAIToolCalls(calls []openai.ToolCall) []models.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]models.ToolCall, len(calls))
	for i, tc := range calls {
		result[i] = models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
	}
	return result
}
