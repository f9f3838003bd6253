package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join(Dir, "tasks.db"), cfg.Storage.Path)
	assert.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, 8, cfg.Storage.MaxOpenConns)
	assert.Equal(t, "tasks.json", cfg.Legacy.Path)
	assert.True(t, cfg.Legacy.AutoImport)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, "tasktree", cfg.Server.Name)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
path = "/srv/tasks.db"
busy_timeout = "250ms"

[legacy]
auto_import = false

[log]
file = "/var/log/tasktree.log"
compress = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "/srv/tasks.db", cfg.Storage.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.BusyTimeout)
	assert.Equal(t, 8, cfg.Storage.MaxOpenConns, "unset keys keep their defaults")
	assert.False(t, cfg.Legacy.AutoImport)
	assert.Equal(t, "/var/log/tasktree.log", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)

	opts := cfg.StorageOptions()
	assert.Equal(t, 250*time.Millisecond, opts.BusyTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\npath = \"from-file.db\"\n"), 0600))

	t.Setenv("TASKTREE_STORAGE_PATH", "from-env.db")
	t.Setenv("TASKTREE_STORAGE_BUSY_TIMEOUT", "2s")
	t.Setenv("TASKTREE_SERVER_NAME", "todo")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Path)
	assert.Equal(t, 2*time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, "todo", cfg.Server.Name)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[storage\npath = "), 0600))
	_, err := Load(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.toml")
	require.NoError(t, os.WriteFile(negative, []byte("[storage]\nbusy_timeout = \"-1s\"\n"), 0600))
	_, err = Load(negative)
	assert.ErrorContains(t, err, "busy_timeout")
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), Dir, "config.toml")

	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "existing file must not be replaced")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `busy_timeout = "5s"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	want := Default()
	want.File = path
	assert.Equal(t, want, cfg)
}

func TestWrite_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg := Default()
	cfg.Server.Name = "renamed"
	require.NoError(t, cfg.Write(path, true))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Server.Name)
}
