package files

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// CopyTool implements copy_path: copies a file, or recursively copies a
// directory, creating the destination's parent directories.
type CopyTool struct {
	validator tools.PathValidator
}

// NewCopyTool constructs copy_path scoped to cfg.Workspace.
func NewCopyTool(cfg Config) (*CopyTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &CopyTool{validator: v}, nil
}

func (t *CopyTool) Name() string { return "copy_path" }

func (t *CopyTool) Description() string {
	return "Copy a file, or recursively copy a directory, within the workspace."
}

func (t *CopyTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"src":       map[string]any{"type": "string"},
			"dest":      map[string]any{"type": "string"},
			"overwrite": map[string]any{"type": "boolean", "description": "remove an existing dest before copying"},
		},
		"required": []string{"src", "dest"},
	})
}

func (t *CopyTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Src       string `json:"src"`
		Dest      string `json:"dest"`
		Overwrite bool   `json:"overwrite"`
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
		if !input.Overwrite {
			return toolErrorf("%q already exists; set overwrite=true to replace it", input.Dest), nil
		}
		if err := os.RemoveAll(dest); err != nil {
			return toolErrorf("remove existing dest: %v", err), nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return toolErrorf("create dest parent directory: %v", err), nil
	}

	if srcInfo.IsDir() {
		if err := copyDir(src, dest); err != nil {
			return toolErrorf("copy directory: %v", err), nil
		}
	} else if err := copyFile(src, dest, srcInfo.Mode()); err != nil {
		return toolErrorf("copy file: %v", err), nil
	}

	return marshalResult(map[string]any{"src": input.Src, "dest": input.Dest}), nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}
