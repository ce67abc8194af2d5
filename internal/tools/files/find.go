package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

const (
	defaultFindLimit = 50
	maxFindLimit     = 1000
)

// FindTool implements find_path: walks the workspace from a starting
// directory and returns paths whose base name matches a glob, paginated.
type FindTool struct {
	validator tools.PathValidator
}

// NewFindTool constructs find_path scoped to cfg.Workspace.
func NewFindTool(cfg Config) (*FindTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &FindTool{validator: v}, nil
}

func (t *FindTool) Name() string { return "find_path" }

func (t *FindTool) Description() string {
	return "Find files and directories under the workspace whose name matches a glob pattern."
}

func (t *FindTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"glob":   map[string]any{"type": "string", "description": "glob matched against each entry's base name, e.g. '*.go'"},
			"path":   map[string]any{"type": "string", "description": "directory to search from, relative to the workspace, default '.'"},
			"offset": map[string]any{"type": "integer", "minimum": 0},
			"limit":  map[string]any{"type": "integer", "minimum": 1, "maximum": maxFindLimit},
		},
		"required": []string{"glob"},
	})
}

func (t *FindTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Glob   string `json:"glob"`
		Path   string `json:"path"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolErrorf("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Glob) == "" {
		return toolErrorf("glob is required"), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		input.Path = "."
	}
	if input.Limit <= 0 {
		input.Limit = defaultFindLimit
	}
	if input.Limit > maxFindLimit {
		input.Limit = maxFindLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	resolved, err := t.validator.Resolve(input.Path)
	if err != nil {
		return toolErrorf("%s", err.Error()), nil
	}
	if info, statErr := os.Stat(resolved); statErr != nil || !info.IsDir() {
		return toolErrorf("%q is not a directory", input.Path), nil
	}

	var matches []string
	err = filepath.Walk(resolved, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == resolved {
			return nil
		}
		if matched, _ := filepath.Match(input.Glob, fi.Name()); matched {
			rel, relErr := filepath.Rel(resolved, p)
			if relErr != nil {
				return relErr
			}
			matches = append(matches, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return toolErrorf("search directory: %v", err), nil
	}

	sort.Strings(matches)
	total := len(matches)

	start := input.Offset
	if start > total {
		start = total
	}
	end := start + input.Limit
	if end > total {
		end = total
	}
	page := matches[start:end]

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) for %q under %q (showing %d-%d)\n", total, input.Glob, input.Path, start, end)
	for _, m := range page {
		fmt.Fprintf(&b, "%s\n", m)
	}

	result := agent.NewToolSuccess(b.String())
	result.WithMetadata("total", fmt.Sprintf("%d", total))
	result.WithMetadata("offset", fmt.Sprintf("%d", start))
	result.WithMetadata("returned", fmt.Sprintf("%d", len(page)))
	return result, nil
}
