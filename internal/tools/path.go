// Package tools holds the cross-cutting helpers shared by the concrete
// file and terminal tool executors: path resolution and, in their
// respective subpackages, command validation.
package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathValidator resolves workspace-relative paths to an absolute path
// rooted at Root, rejecting anything that could reach outside the
// workspace. Unlike a resolver that only checks for escape after joining,
// it hard-rejects an absolute input path and any path carrying a literal
// ".." segment before the join is attempted, so a crafted "./a/../../b"
// never gets a chance to resolve cleanly.
type PathValidator struct {
	Root string
}

// NewPathValidator returns a PathValidator rooted at the absolute form of
// root.
func NewPathValidator(root string) (PathValidator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return PathValidator{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	return PathValidator{Root: abs}, nil
}

// Resolve validates and returns the absolute path for a workspace-relative
// input. It rejects:
//   - an empty path
//   - an absolute path
//   - a path with any ".." path segment
//   - a path that, once joined and cleaned, still falls outside Root
func (v PathValidator) Resolve(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(trimmed) {
		return "", fmt.Errorf("path must be relative to the workspace, got absolute path %q", trimmed)
	}

	for _, segment := range strings.Split(filepath.ToSlash(trimmed), "/") {
		if segment == ".." {
			return "", fmt.Errorf("path must not contain '..' segments, got %q", trimmed)
		}
	}

	joined := filepath.Join(v.Root, trimmed)
	rel, err := filepath.Rel(v.Root, joined)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %q", trimmed)
	}
	return joined, nil
}
