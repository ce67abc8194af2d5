package files

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// MkdirTool implements create_directory: idempotent directory creation.
type MkdirTool struct {
	validator tools.PathValidator
}

// NewMkdirTool constructs create_directory scoped to cfg.Workspace.
func NewMkdirTool(cfg Config) (*MkdirTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &MkdirTool{validator: v}, nil
}

func (t *MkdirTool) Name() string { return "create_directory" }

func (t *MkdirTool) Description() string {
	return "Create a directory in the workspace, including any missing parents. Idempotent."
}

func (t *MkdirTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "path relative to the workspace"},
		},
		"required": []string{"path"},
	})
}

func (t *MkdirTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolErrorf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolErrorf("path is required"), nil
	}

	resolved, err := t.validator.Resolve(input.Path)
	if err != nil {
		return toolErrorf("%s", err.Error()), nil
	}

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		return toolErrorf("%q exists and is a file", input.Path), nil
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return toolErrorf("create directory: %v", err), nil
	}

	return marshalResult(map[string]any{"path": input.Path, "created": true}), nil
}
