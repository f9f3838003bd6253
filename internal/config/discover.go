package config

import (
	"os"
	"path/filepath"
)

// vcsMarkers name the entries that mark a repository root. Discovery never
// walks above one.
var vcsMarkers = []string{".jj", ".git"}

// FindRoot returns the project root for start: the nearest ancestor that
// holds a .tasktree directory. The walk stops at the first repository root
// (.git or .jj) or at the filesystem root; in that case found is false and
// root is the repository root, or start itself outside a repository.
func FindRoot(start string) (root string, found bool, err error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", false, err
	}

	current := abs
	for {
		if info, err := os.Stat(filepath.Join(current, Dir)); err == nil && info.IsDir() {
			return current, true, nil
		}
		for _, marker := range vcsMarkers {
			// .git is a file in worktrees
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current, false, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return abs, false, nil
		}
		current = parent
	}
}

// Resolve makes the relative file paths in c relative to root instead of
// the working directory.
func (c *Config) Resolve(root string) {
	c.Storage.Path = resolve(root, c.Storage.Path)
	c.Legacy.Path = resolve(root, c.Legacy.Path)
	c.Log.File = resolve(root, c.Log.File)
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
