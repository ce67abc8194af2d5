package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corerun/agentcore/pkg/models"
)

type scriptedProvider struct {
	responses []*CompletionResponse
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		return &CompletionResponse{Message: models.Message{Role: models.RoleAssistant, Content: "done"}}, nil
	}
	return p.responses[i], nil
}

func (p *scriptedProvider) Models() ([]ModelInfo, error) { return nil, ErrNotSupported }
func (p *scriptedProvider) SupportsTools() bool          { return true }

func TestExecuteSimpleTurn(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*CompletionResponse{
			{Message: models.Message{Role: models.RoleAssistant, Content: "Hello, world!"}},
		},
	}
	a, err := New(AgentConfig{MaxTurns: 5, TimeoutSeconds: 30, Conversation: DefaultConversationConfig()}, provider, NewToolRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := a.Execute(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello, world!" {
		t.Errorf("got %q, want %q", got, "Hello, world!")
	}

	msgs := a.Conversation().Messages()
	if len(msgs) != 2 || msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected message log: %+v", msgs)
	}
}

func TestExecuteIterationCapOnMissingTool(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*CompletionResponse{
			{Message: models.Message{
				Role: models.RoleAssistant,
				ToolCalls: []models.ToolCall{
					{ID: "1", Name: "nonexistent", Arguments: json.RawMessage(`{}`)},
				},
			}},
		},
	}
	a, err := New(AgentConfig{MaxTurns: 5, TimeoutSeconds: 30, Conversation: DefaultConversationConfig()}, provider, NewToolRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = a.Execute(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected a hard error for missing tool")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindTool {
		t.Errorf("kind = %v, want %v", kind, KindTool)
	}
}

func TestExecuteRunsToolCallAndContinues(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(stubTool{name: "read_file"})

	provider := &scriptedProvider{
		responses: []*CompletionResponse{
			{Message: models.Message{
				Role: models.RoleAssistant,
				ToolCalls: []models.ToolCall{
					{ID: "1", Name: "read_file", Arguments: json.RawMessage(`{"path":"a.txt"}`)},
				},
			}},
			{Message: models.Message{Role: models.RoleAssistant, Content: "final answer"}},
		},
	}
	a, err := New(AgentConfig{MaxTurns: 5, TimeoutSeconds: 30, Conversation: DefaultConversationConfig()}, provider, registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := a.Execute(context.Background(), "read it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "final answer" {
		t.Errorf("got %q, want %q", got, "final answer")
	}

	var sawToolResult bool
	for _, msg := range a.Conversation().Messages() {
		if msg.Role == models.RoleTool && msg.ToolCallID == "1" {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Error("expected a tool-role message paired to call id 1")
	}
}

func TestExecuteMaxTurnsExceeded(t *testing.T) {
	provider := &scriptedProvider{}
	// Force a tool-call loop that never terminates by always returning a
	// tool call to a real, registered tool.
	registry := NewToolRegistry()
	registry.Register(stubTool{name: "read_file"})
	resp := &CompletionResponse{Message: models.Message{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{ID: "1", Name: "read_file", Arguments: json.RawMessage(`{}`)},
		},
	}}
	for i := 0; i < 10; i++ {
		provider.responses = append(provider.responses, resp)
	}

	a, err := New(AgentConfig{MaxTurns: 2, TimeoutSeconds: 30, Conversation: DefaultConversationConfig()}, provider, registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = a.Execute(context.Background(), "go forever")
	if err == nil {
		t.Fatal("expected MaxIterationsExceeded error")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindMaxIterationsExceeded {
		t.Errorf("kind = %v, want %v", kind, KindMaxIterationsExceeded)
	}
}

func TestNewRejectsZeroMaxTurns(t *testing.T) {
	_, err := New(AgentConfig{MaxTurns: 0}, &scriptedProvider{}, NewToolRegistry())
	if err == nil {
		t.Fatal("expected config error for zero max_turns")
	}
}
