package files

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// MoveTool implements move_path: renames src to dest, falling back to
// copy-then-delete when the rename crosses filesystems.
type MoveTool struct {
	validator tools.PathValidator
}

// NewMoveTool constructs move_path scoped to cfg.Workspace.
func NewMoveTool(cfg Config) (*MoveTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &MoveTool{validator: v}, nil
}

func (t *MoveTool) Name() string { return "move_path" }

func (t *MoveTool) Description() string {
	return "Move or rename a file or directory within the workspace."
}

func (t *MoveTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"src":  map[string]any{"type": "string"},
			"dest": map[string]any{"type": "string"},
		},
		"required": []string{"src", "dest"},
	})
}

func (t *MoveTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Src  string `json:"src"`
		Dest string `json:"dest"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolErrorf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Src) == "" || strings.TrimSpace(input.Dest) == "" {
		return toolErrorf("src and dest are required"), nil
	}

	src, err := t.validator.Resolve(input.Src)
	if err != nil {
		return toolErrorf("src: %s", err.Error()), nil
	}
	dest, err := t.validator.Resolve(input.Dest)
	if err != nil {
		return toolErrorf("dest: %s", err.Error()), nil
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return toolErrorf("%q not found", input.Src), nil
	}
	if _, err := os.Stat(dest); err == nil {
		return toolErrorf("%q already exists", input.Dest), nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return toolErrorf("create dest parent directory: %v", err), nil
	}

	if err := os.Rename(src, dest); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return toolErrorf("move: %v", err), nil
		}
		// Cross-filesystem rename: fall back to copy-then-delete.
		if srcInfo.IsDir() {
			if err := copyDir(src, dest); err != nil {
				return toolErrorf("copy directory across filesystems: %v", err), nil
			}
		} else if err := copyFile(src, dest, srcInfo.Mode()); err != nil {
			return toolErrorf("copy file across filesystems: %v", err), nil
		}
		if err := os.RemoveAll(src); err != nil {
			return toolErrorf("remove source after copy: %v", err), nil
		}
	}

	return marshalResult(map[string]any{"src": input.Src, "dest": input.Dest}), nil
}
