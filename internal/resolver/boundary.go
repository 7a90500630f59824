package resolver

import (
	"path/filepath"
	"strings"

	"github.com/snapbase/snapbase/internal/snaperr"
)

// CheckBoundary resolves candidatePath (which may be relative to
// workspaceRoot, or absolute) and confirms it resolves to a location inside
// workspaceRoot, rejecting symlink escapes by resolving through
// filepath.EvalSymlinks when the path exists.
func CheckBoundary(workspaceRoot, candidatePath string) (string, error) {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return "", snaperr.NewOutsideWorkspace("resolve workspace root %q: %v", workspaceRoot, err)
	}
	root = filepath.Clean(root)

	var abs string
	if filepath.IsAbs(candidatePath) {
		abs = filepath.Clean(candidatePath)
	} else {
		abs = filepath.Clean(filepath.Join(root, candidatePath))
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolvedRoot, err := filepath.EvalSymlinks(root); err == nil {
		root = resolvedRoot
	}

	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", snaperr.NewOutsideWorkspace("path %q escapes workspace root %q", candidatePath, workspaceRoot)
	}
	return abs, nil
}
