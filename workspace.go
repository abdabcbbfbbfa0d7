package hotreload

import (
	"os"
	"path/filepath"
)

// workspaceBase answers "is this module root nested inside a larger
// multi-module workspace" and returns the directory template names should
// be computed relative to. Answers are memoized per root; a failed lookup
// degrades to the root itself rather than aborting.
func (fm *FileMap) workspaceBase(root string) string {
	if base, ok := fm.workspaces[root]; ok {
		return base
	}
	base := findWorkspaceRoot(root)
	fm.workspaces[root] = base
	return base
}

// findWorkspaceRoot walks up from dir looking for a go.work file. The
// nearest enclosing workspace wins; without one, dir is its own base.
func findWorkspaceRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		if _, err := os.Stat(filepath.Join(cur, "go.work")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}
