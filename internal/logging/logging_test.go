package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschirtzinger/tasktree/internal/config"
)

func TestOpen_Stderr(t *testing.T) {
	sink, err := Open(config.LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, sink.Writer())
	assert.NoError(t, sink.Close())
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tasktree.log")

	sink, err := Open(config.LogConfig{File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	sink.Logger("repo").Printf("Deleted task %d", 7)
	sink.Logger("import").Print("Imported 3 tasks")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[repo] "))
	assert.Contains(t, lines[0], "Deleted task 7")
	assert.True(t, strings.HasPrefix(lines[1], "[import] "))
}

func TestStderrAndDiscard(t *testing.T) {
	assert.Equal(t, os.Stderr, Stderr().Writer())
	assert.NoError(t, Stderr().Close())

	logger := Discard()
	logger.Printf("dropped %d", 1)
	assert.Empty(t, logger.Prefix())
}

func TestCloseNil(t *testing.T) {
	var sink *Sink
	assert.NoError(t, sink.Close())
}
