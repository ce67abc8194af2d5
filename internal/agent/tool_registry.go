package agent

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// subagentToolName is excluded from every clone_with_filter result to
// prevent a child registry from trivially self-registering a cycle back to
// its own spawn tool.
const subagentToolName = "subagent"

const parallelSubagentToolName = "parallel_subagent"

// ToolRegistry is a thin, concurrency-safe name-to-Tool map. Registries are
// treated as immutable after handoff to an Agent: callers build one with
// Register, then only ever clone it from that point on.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds or overwrites the tool under its own Name(). Last
// registration wins.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get looks up a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len reports how many tools are registered.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// IsEmpty reports whether the registry has no tools.
func (r *ToolRegistry) IsEmpty() bool {
	return r.Len() == 0
}

// Names returns the registered tool names in sorted order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toolDefinition is the OpenAI function-calling shaped schema returned by
// AllDefinitions.
type toolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// AllDefinitions returns the JSON schema list passed to the provider on
// every model call.
func (r *ToolRegistry) AllDefinitions() []json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]json.RawMessage, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		raw, err := json.Marshal(toolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
		if err != nil {
			continue
		}
		defs = append(defs, raw)
	}
	return defs
}

// CloneWithFilter returns a new registry containing exactly the entries
// whose name appears in allowed, except that "subagent" is always dropped.
// An allowed name absent from the parent registry is a KindConfig error.
func (r *ToolRegistry) CloneWithFilter(allowed []string) (*ToolRegistry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewToolRegistry()
	for _, name := range allowed {
		if name == subagentToolName {
			continue
		}
		t, ok := r.tools[name]
		if !ok {
			return nil, ConfigError("unknown tool in allowed_tools: %q", name)
		}
		out.tools[name] = t
	}
	return out, nil
}

// CloneWithoutParallel returns a new registry with every entry from the
// receiver except parallel_subagent.
func (r *ToolRegistry) CloneWithoutParallel() *ToolRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewToolRegistry()
	for name, t := range r.tools {
		if name == parallelSubagentToolName {
			continue
		}
		out.tools[name] = t
	}
	return out
}

// CloneWithoutSubagent returns a new registry with every entry from the
// receiver except subagent itself — used when building the base registry a
// fresh subagent tool is then registered into.
func (r *ToolRegistry) CloneWithoutSubagent() *ToolRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewToolRegistry()
	for name, t := range r.tools {
		if name == subagentToolName {
			continue
		}
		out.tools[name] = t
	}
	return out
}

// Execute looks up name and dispatches args to it. A missing tool is a hard
// KindTool error, matching dispatch_tool_call's contract.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, ToolError(nil, "tool not found: %s", name)
	}
	return t.Execute(ctx, args)
}
