// Package files implements the core's filesystem tool executors: read,
// write, edit, delete, copy, move, create_directory, list_directory, and
// find_path. Every tool validates its paths through a shared
// tools.PathValidator rooted at the configured workspace before touching
// disk.
package files

import (
	"encoding/json"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// Config is shared construction input for every file tool.
type Config struct {
	// Workspace is the directory every tool's paths are resolved against.
	Workspace string

	// MaxReadBytes caps a single read_file call; zero means the package
	// default of 200000 bytes.
	MaxReadBytes int

	// MaxWriteBytes caps write_file and edit_file's resulting content size;
	// zero means no cap.
	MaxWriteBytes int
}

func validatorFor(cfg Config) (tools.PathValidator, error) {
	root := cfg.Workspace
	if root == "" {
		root = "."
	}
	return tools.NewPathValidator(root)
}

func toolErrorf(format string, args ...any) *agent.ToolResult {
	return agent.NewToolFailure(format, args...)
}

func jsonSchema(v map[string]any) json.RawMessage {
	payload, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func marshalResult(v any) *agent.ToolResult {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolErrorf("encode result: %v", err)
	}
	return agent.NewToolSuccess(string(payload))
}
