package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// WriteTool implements write_file: creates or overwrites a file, creating
// parent directories as needed.
type WriteTool struct {
	validator    tools.PathValidator
	maxWriteSize int
}

// NewWriteTool constructs write_file scoped to cfg.Workspace.
func NewWriteTool(cfg Config) (*WriteTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &WriteTool{validator: v, maxWriteSize: cfg.MaxWriteBytes}, nil
}

func (t *WriteTool) Name() string { return "write_file" }

func (t *WriteTool) Description() string {
	return "Create or overwrite a file in the workspace, creating parent directories as needed."
}

func (t *WriteTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "path relative to the workspace"},
			"content": map[string]any{"type": "string", "description": "file contents to write"},
		},
		"required": []string{"path", "content"},
	})
}

func (t *WriteTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolErrorf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolErrorf("path is required"), nil
	}
	if t.maxWriteSize > 0 && len(input.Content) > t.maxWriteSize {
		return toolErrorf("content size %d exceeds max_write_bytes %d", len(input.Content), t.maxWriteSize), nil
	}

	resolved, err := t.validator.Resolve(input.Path)
	if err != nil {
		return toolErrorf("%s", err.Error()), nil
	}

	if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
		return toolErrorf("%q is an existing directory", input.Path), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return toolErrorf("create parent directory: %v", err), nil
	}
	if err := os.WriteFile(resolved, []byte(input.Content), 0o644); err != nil {
		return toolErrorf("write file: %v", err), nil
	}

	return marshalResult(map[string]any{
		"path":          input.Path,
		"bytes_written": len(input.Content),
	}), nil
}
