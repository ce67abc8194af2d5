package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRoleConstants(t *testing.T) {
	tests := []struct {
		constant Role
		expected string
	}{
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
		{RoleSystem, "system"},
		{RoleTool, "tool"},
	}

	for _, tt := range tests {
		if string(tt.constant) != tt.expected {
			t.Errorf("constant = %q, want %q", tt.constant, tt.expected)
		}
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	original := Message{
		Role:    RoleAssistant,
		Content: "Hello!",
		ToolCalls: []ToolCall{
			{ID: "tc-1", Name: "search", Arguments: json.RawMessage(`{"q":"test"}`)},
		},
		CreatedAt: now,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if decoded.Role != original.Role {
		t.Errorf("Role = %v, want %v", decoded.Role, original.Role)
	}
	if decoded.Content != original.Content {
		t.Errorf("Content = %q, want %q", decoded.Content, original.Content)
	}
	if len(decoded.ToolCalls) != 1 || decoded.ToolCalls[0].Name != "search" {
		t.Errorf("ToolCalls = %+v, want one call named search", decoded.ToolCalls)
	}
}

func TestMessageOmitsEmptyFields(t *testing.T) {
	msg := Message{Role: RoleUser, Content: "hi"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := raw["tool_calls"]; ok {
		t.Errorf("expected tool_calls to be omitted when empty, got %v", raw["tool_calls"])
	}
	if _, ok := raw["tool_call_id"]; ok {
		t.Errorf("expected tool_call_id to be omitted when empty, got %v", raw["tool_call_id"])
	}
}

func TestToolCallStruct(t *testing.T) {
	tc := ToolCall{ID: "tc-123", Name: "web_search", Arguments: json.RawMessage(`{"query":"test"}`)}
	if tc.ID != "tc-123" {
		t.Errorf("ID = %q, want %q", tc.ID, "tc-123")
	}
	if tc.Name != "web_search" {
		t.Errorf("Name = %q, want %q", tc.Name, "web_search")
	}
}

func TestTokenUsageAddAccumulates(t *testing.T) {
	var usage TokenUsage
	usage.Add(10, 5)
	usage.Add(3, 2)

	if usage.PromptTokens != 13 {
		t.Errorf("PromptTokens = %d, want 13", usage.PromptTokens)
	}
	if usage.CompletionTokens != 7 {
		t.Errorf("CompletionTokens = %d, want 7", usage.CompletionTokens)
	}
	if usage.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", usage.TotalTokens)
	}
}
