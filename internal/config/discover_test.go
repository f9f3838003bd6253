package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0755))
	}
}

func TestFindRoot(t *testing.T) {
	t.Run("nearest state directory", func(t *testing.T) {
		base := t.TempDir()
		mkdirs(t, filepath.Join(base, Dir), filepath.Join(base, "a", "b"))

		root, found, err := FindRoot(filepath.Join(base, "a", "b"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, base, root)
	})

	t.Run("stops at repository root", func(t *testing.T) {
		base := t.TempDir()
		repoDir := filepath.Join(base, "repo")
		// a state dir above the repository must not be picked up
		mkdirs(t, filepath.Join(base, Dir), filepath.Join(repoDir, ".git"), filepath.Join(repoDir, "pkg"))

		root, found, err := FindRoot(filepath.Join(repoDir, "pkg"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, repoDir, root)
	})

	t.Run("worktree git file", func(t *testing.T) {
		base := t.TempDir()
		mkdirs(t, filepath.Join(base, "src"))
		require.NoError(t, os.WriteFile(filepath.Join(base, ".git"), []byte("gitdir: /elsewhere\n"), 0644))

		root, found, err := FindRoot(filepath.Join(base, "src"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, base, root)
	})

	t.Run("jj repository", func(t *testing.T) {
		base := t.TempDir()
		mkdirs(t, filepath.Join(base, ".jj"), filepath.Join(base, Dir))

		root, found, err := FindRoot(base)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, base, root)
	})
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "elsewhere", "tasks.db")

	cfg := Default()
	cfg.Resolve(root)
	assert.Equal(t, filepath.Join(root, ".tasktree", "tasks.db"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(root, "tasks.json"), cfg.Legacy.Path)
	assert.Empty(t, cfg.Log.File)

	cfg.Storage.Path = abs
	cfg.Resolve(root)
	assert.Equal(t, abs, cfg.Storage.Path)
}
