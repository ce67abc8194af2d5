package agent

import (
	"context"
	"encoding/json"
	"testing"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string               { return s.name }
func (s stubTool) Description() string        { return "stub" }
func (s stubTool) Schema() json.RawMessage    { return json.RawMessage(`{"type":"object"}`) }
func (s stubTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	return NewToolSuccess("ok"), nil
}

func newTestRegistry(names ...string) *ToolRegistry {
	r := NewToolRegistry()
	for _, n := range names {
		r.Register(stubTool{name: n})
	}
	return r
}

func TestCloneWithFilterExcludesSubagent(t *testing.T) {
	r := newTestRegistry("read_file", "subagent", "terminal")
	clone, err := r.CloneWithFilter([]string{"read_file", "subagent", "terminal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := clone.Names()
	if len(names) != 2 {
		t.Fatalf("got %v, want 2 names excluding subagent", names)
	}
	if _, ok := clone.Get("subagent"); ok {
		t.Error("subagent must never survive clone_with_filter")
	}
}

func TestCloneWithFilterRejectsUnknownName(t *testing.T) {
	r := newTestRegistry("read_file")
	if _, err := r.CloneWithFilter([]string{"nonexistent"}); err == nil {
		t.Fatal("expected error for unknown tool name in allowed_tools")
	}
}

func TestCloneWithoutParallelDropsOnlyParallel(t *testing.T) {
	r := newTestRegistry("subagent", "parallel_subagent", "terminal")
	clone := r.CloneWithoutParallel()
	if _, ok := clone.Get("parallel_subagent"); ok {
		t.Error("parallel_subagent should be dropped")
	}
	if _, ok := clone.Get("subagent"); !ok {
		t.Error("subagent should survive clone_without_parallel")
	}
	if clone.Len() != 2 {
		t.Errorf("len = %d, want 2", clone.Len())
	}
}

func TestRegisterOverwritesSilently(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "read_file"})
	r.Register(stubTool{name: "read_file"})
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1 (last registration wins)", r.Len())
	}
}

func TestExecuteMissingToolIsHardError(t *testing.T) {
	r := NewToolRegistry()
	_, err := r.Execute(context.Background(), "nonexistent", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected hard error for missing tool")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindTool {
		t.Errorf("kind = %v, want %v", kind, KindTool)
	}
}

func TestAllDefinitionsShapedForFunctionCalling(t *testing.T) {
	r := newTestRegistry("read_file")
	defs := r.AllDefinitions()
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	var def struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(defs[0], &def); err != nil {
		t.Fatalf("invalid definition JSON: %v", err)
	}
	if def.Name != "read_file" {
		t.Errorf("name = %q, want read_file", def.Name)
	}
}
