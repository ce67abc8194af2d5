package files

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

const defaultMaxReadBytes = 200_000

// ReadTool implements read_file: returns a file's contents, optionally
// starting at a byte offset and capped at a byte count.
type ReadTool struct {
	validator tools.PathValidator
	maxBytes  int
}

// NewReadTool constructs read_file scoped to cfg.Workspace.
func NewReadTool(cfg Config) (*ReadTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	limit := cfg.MaxReadBytes
	if limit <= 0 {
		limit = defaultMaxReadBytes
	}
	return &ReadTool{validator: v, maxBytes: limit}, nil
}

func (t *ReadTool) Name() string { return "read_file" }

func (t *ReadTool) Description() string {
	return "Read a file from the workspace, optionally starting at a byte offset with a byte cap."
}

func (t *ReadTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string", "description": "path relative to the workspace"},
			"offset":    map[string]any{"type": "integer", "minimum": 0, "description": "byte offset to start reading from"},
			"max_bytes": map[string]any{"type": "integer", "minimum": 0, "description": "maximum bytes to read, capped by the tool's configured limit"},
		},
		"required": []string{"path"},
	})
}

func (t *ReadTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path     string `json:"path"`
		Offset   int64  `json:"offset"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolErrorf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolErrorf("path is required"), nil
	}
	if input.Offset < 0 {
		return toolErrorf("offset must be >= 0"), nil
	}

	resolved, err := t.validator.Resolve(input.Path)
	if err != nil {
		return toolErrorf("%s", err.Error()), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return toolErrorf("open file: %v", err), nil
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return toolErrorf("stat file: %v", err), nil
	}
	if info.IsDir() {
		return toolErrorf("%q is a directory", input.Path), nil
	}

	limit := t.maxBytes
	if input.MaxBytes > 0 && input.MaxBytes < limit {
		limit = input.MaxBytes
	}

	if input.Offset > 0 {
		if _, err := file.Seek(input.Offset, io.SeekStart); err != nil {
			return toolErrorf("seek file: %v", err), nil
		}
	}

	buf, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		return toolErrorf("read file: %v", err), nil
	}

	truncated := false
	if len(buf) > limit {
		truncated = true
		buf = buf[:limit]
	}

	result := agent.NewToolSuccess(string(buf))
	result.Truncated = truncated
	result.WithMetadata("path", input.Path)
	result.WithMetadata("bytes", strconv.Itoa(len(buf)))
	return result, nil
}
