// Package logging builds the *log.Logger values handed to tasktree
// components.
//
// Components take a plain *log.Logger with a bracketed component prefix
// ("[repo] ", "[import] ", "[mcp] "). By default they write to stderr.
// When a log file is configured, output goes to a size-rotated file
// instead, which is required for the MCP server since its stdout carries
// the protocol stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mschirtzinger/tasktree/internal/config"
)

// Flags are the standard flags for every tasktree logger.
const Flags = log.LstdFlags

// Sink is the shared destination of all component loggers.
type Sink struct {
	w      io.Writer
	closer io.Closer
}

// Open returns a Sink for cfg. An empty cfg.File writes to stderr.
func Open(cfg config.LogConfig) (*Sink, error) {
	if cfg.File == "" {
		return Stderr(), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &Sink{w: rotator, closer: rotator}, nil
}

// Stderr returns a Sink writing to stderr.
func Stderr() *Sink {
	return &Sink{w: os.Stderr}
}

// Logger returns a logger for component, prefixed "[component] ".
func (s *Sink) Logger(component string) *log.Logger {
	return log.New(s.w, "["+component+"] ", Flags)
}

// Writer returns the underlying destination.
func (s *Sink) Writer() io.Writer {
	return s.w
}

// Close flushes and closes a file sink. Closing a stderr sink is a no-op.
func (s *Sink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
