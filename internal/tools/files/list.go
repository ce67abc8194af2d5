package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools"
)

// ListTool implements list_directory: lists a directory's entries,
// optionally recursively and filtered by a glob pattern.
type ListTool struct {
	validator tools.PathValidator
}

// NewListTool constructs list_directory scoped to cfg.Workspace.
func NewListTool(cfg Config) (*ListTool, error) {
	v, err := validatorFor(cfg)
	if err != nil {
		return nil, err
	}
	return &ListTool{validator: v}, nil
}

func (t *ListTool) Name() string { return "list_directory" }

func (t *ListTool) Description() string {
	return "List a directory's entries, optionally recursively and filtered by a glob pattern."
}

func (t *ListTool) Schema() json.RawMessage {
	return jsonSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":      map[string]any{"type": "string", "description": "directory path relative to the workspace, default '.'"},
			"recursive": map[string]any{"type": "boolean"},
			"pattern":   map[string]any{"type": "string", "description": "glob matched against each entry's base name"},
		},
	})
}

func (t *ListTool) Execute(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
		Pattern   string `json:"pattern"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return toolErrorf("invalid arguments: %v", err), nil
		}
	}
	if strings.TrimSpace(input.Path) == "" {
		input.Path = "."
	}

	resolved, err := t.validator.Resolve(input.Path)
	if err != nil {
		return toolErrorf("%s", err.Error()), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return toolErrorf("%q not found", input.Path), nil
	}
	if !info.IsDir() {
		return toolErrorf("%q is not a directory", input.Path), nil
	}

	type entry struct {
		relPath string
		isDir   bool
		size    int64
		modTime time.Time
	}
	var entries []entry

	if input.Recursive {
		err = filepath.Walk(resolved, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if p == resolved {
				return nil
			}
			rel, relErr := filepath.Rel(resolved, p)
			if relErr != nil {
				return relErr
			}
			if input.Pattern != "" {
				if matched, _ := filepath.Match(input.Pattern, fi.Name()); !matched {
					return nil
				}
			}
			entries = append(entries, entry{relPath: filepath.ToSlash(rel), isDir: fi.IsDir(), size: fi.Size(), modTime: fi.ModTime()})
			return nil
		})
		if err != nil {
			return toolErrorf("walk directory: %v", err), nil
		}
	} else {
		dirEntries, err := os.ReadDir(resolved)
		if err != nil {
			return toolErrorf("read directory: %v", err), nil
		}
		for _, de := range dirEntries {
			if input.Pattern != "" {
				if matched, _ := filepath.Match(input.Pattern, de.Name()); !matched {
					continue
				}
			}
			fi, err := de.Info()
			if err != nil {
				continue
			}
			entries = append(entries, entry{relPath: de.Name(), isDir: de.IsDir(), size: fi.Size(), modTime: fi.ModTime()})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	var b strings.Builder
	for _, e := range entries {
		kind := "file"
		if e.isDir {
			kind = "dir"
		}
		fmt.Fprintf(&b, "%s  %s  %d  %d\n", e.relPath, kind, e.size, e.modTime.Unix())
	}

	result := agent.NewToolSuccess(b.String())
	result.WithMetadata("path", input.Path)
	result.WithMetadata("count", fmt.Sprintf("%d", len(entries)))
	return result, nil
}
