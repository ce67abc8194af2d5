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

// EditMode selects edit_file's behavior.
type EditMode string

const (
	EditModeCreate    EditMode = "create"
	EditModeEdit      EditMode = "edit"
	EditModeOverwrite EditMode = "overwrite"
)

// EditTool implements edit_file: create a new file, replace one occurrence
// of old_text in place, or overwrite a file wholesale. Every successful
// call emits a unified diff of the change as its output.
type EditTool struct {
	validator    tools.PathValidator
	maxWriteSize int
}

// NewEditTool constructs edit_file scoped to cfg.Workspace.
func NewEditTool(cfg Config) (*EditTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &EditTool{validator: v, maxWriteSize: cfg.MaxWriteBytes}, nil
}

func (t *EditTool) Name() string { return "edit_file" }

func (t *EditTool) Description() string {
	return "Create, in-place edit, or overwrite a file in the workspace. Returns a unified diff of the change."
}

func (t *EditTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":     map[string]any{"type": "string", "description": "path relative to the workspace"},
			"mode":     map[string]any{"type": "string", "enum": []string{"create", "edit", "overwrite"}},
			"content":  map[string]any{"type": "string", "description": "new file content (create/overwrite) or replacement text (edit, when old_text is given)"},
			"old_text": map[string]any{"type": "string", "description": "edit mode only: exact text to replace, must occur exactly once; omit to replace the whole file"},
		},
		"required": []string{"path", "mode", "content"},
	})
}

func (t *EditTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path    string   `json:"path"`
		Mode    EditMode `json:"mode"`
		Content string   `json:"content"`
		OldText string   `json:"old_text"`
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

	info, statErr := os.Stat(resolved)
	exists := statErr == nil

	var oldContent, newContent string

	switch input.Mode {
	case EditModeCreate:
		if exists {
			return toolErrorf("%q already exists; use mode=overwrite or mode=edit", input.Path), nil
		}
		newContent = input.Content

	case EditModeOverwrite:
		if !exists {
			return toolErrorf("%q does not exist; use mode=create", input.Path), nil
		}
		if info.IsDir() {
			return toolErrorf("%q is a directory", input.Path), nil
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return toolErrorf("read file: %v", err), nil
		}
		oldContent = string(data)
		newContent = input.Content

	case EditModeEdit:
		if !exists {
			return toolErrorf("%q does not exist; use mode=create", input.Path), nil
		}
		if info.IsDir() {
			return toolErrorf("%q is a directory", input.Path), nil
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return toolErrorf("read file: %v", err), nil
		}
		oldContent = string(data)

		if input.OldText == "" {
			newContent = input.Content
		} else {
			count := strings.Count(oldContent, input.OldText)
			if count == 0 {
				return toolErrorf("old_text not found in %q", input.Path), nil
			}
			if count > 1 {
				return toolErrorf("old_text occurs %d times in %q, must occur exactly once", count, input.Path), nil
			}
			newContent = strings.Replace(oldContent, input.OldText, input.Content, 1)
		}

	default:
		return toolErrorf("mode must be one of create, edit, overwrite, got %q", input.Mode), nil
	}

	if t.maxWriteSize > 0 && len(newContent) > t.maxWriteSize {
		return toolErrorf("resulting content size %d exceeds max_write_bytes %d", len(newContent), t.maxWriteSize), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return toolErrorf("create parent directory: %v", err), nil
	}
	if err := os.WriteFile(resolved, []byte(newContent), 0o644); err != nil {
		return toolErrorf("write file: %v", err), nil
	}

	diff := unifiedDiff(input.Path, oldContent, newContent)
	result := agent.NewToolSuccess(diff)
	result.WithMetadata("path", input.Path)
	result.WithMetadata("mode", string(input.Mode))
	return result, nil
}
