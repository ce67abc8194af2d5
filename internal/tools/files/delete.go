package files

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// DeleteTool implements delete_path: removes a file unconditionally, or a
// directory only when recursive is set.
type DeleteTool struct {
	validator tools.PathValidator
}

// NewDeleteTool constructs delete_path scoped to cfg.Workspace.
func NewDeleteTool(cfg Config) (*DeleteTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &DeleteTool{validator: v}, nil
}

func (t *DeleteTool) Name() string { return "delete_path" }

func (t *DeleteTool) Description() string {
	return "Delete a file, or a directory when recursive is set."
}

func (t *DeleteTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string", "description": "path relative to the workspace"},
			"recursive": map[string]any{"type": "boolean", "description": "required to delete a directory"},
		},
		"required": []string{"path"},
	})
}

func (t *DeleteTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
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

	info, err := os.Stat(resolved)
	if err != nil {
		return toolErrorf("%q not found", input.Path), nil
	}

	if info.IsDir() {
		if !input.Recursive {
			return toolErrorf("%q is a directory; set recursive=true to delete it", input.Path), nil
		}
		if err := os.RemoveAll(resolved); err != nil {
			return toolErrorf("delete directory: %v", err), nil
		}
	} else if err := os.Remove(resolved); err != nil {
		return toolErrorf("delete file: %v", err), nil
	}

	return marshalResult(map[string]any{"path": input.Path, "deleted": true}), nil
}
