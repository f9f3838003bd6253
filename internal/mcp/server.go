// Package mcp exposes the task repository as Model Context Protocol tools.
//
// Each tool decodes its arguments, calls one Repository method and returns
// the result as JSON text. Repository errors are returned as tool errors
// (not protocol errors) carrying the error kind and whether a retry may
// help, so the calling agent can react:
//
//	{"error": "not found: task 12", "kind": "not_found", "retryable": false}
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mschirtzinger/tasktree/internal/repo"
)

// Version is reported to clients during initialization.
var Version = "dev"

// Config configures the MCP server.
type Config struct {
	// Name is the server name announced to clients
	Name string
	// Repository is the task store every tool operates on
	Repository *repo.Repository
	// Logger receives one line per tool call (nil = stderr with "[mcp] ")
	Logger *log.Logger
}

// Server is the tasktree MCP server.
type Server struct {
	repo   *repo.Repository
	logger *log.Logger
	mcp    *server.MCPServer
	now    func() time.Time
	tools  map[string]server.ToolHandlerFunc
}

// New creates the server and registers every tool.
func New(cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = "tasktree"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[mcp] ", log.LstdFlags)
	}

	s := &Server{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    time.Now,
		tools:  make(map[string]server.ToolHandlerFunc),
	}
	s.mcp = server.NewMCPServer(
		cfg.Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, t := range s.toolset() {
		handler := s.wrap(t.def.Name, t.call)
		s.tools[t.def.Name] = handler
		s.mcp.AddTool(t.def, handler)
	}
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the protocol over in/out until ctx is cancelled or in
// is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger)
	s.logger.Printf("Serving %d tools over stdio", len(s.tools))
	return stdio.Listen(ctx, in, out)
}

// toolFunc implements one tool. It returns the value to encode as the
// result.
type toolFunc func(ctx context.Context, a args) (any, error)

type tool struct {
	def  mcpgo.Tool
	call toolFunc
}

// errorResult is the body of a failed tool call.
type errorResult struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

var kindNames = map[error]string{
	repo.ErrInvalidInput:        "invalid_input",
	repo.ErrNotFound:            "not_found",
	repo.ErrInvalidTransition:   "invalid_transition",
	repo.ErrConstraintViolation: "constraint_violation",
	repo.ErrStorageUnavailable:  "storage_unavailable",
	repo.ErrStorageBusy:         "storage_busy",
}

// KindName returns the wire name of err's kind, "internal" if it has none.
func KindName(err error) string {
	if name, ok := kindNames[repo.Kind(err)]; ok {
		return name
	}
	return "internal"
}

func (s *Server) wrap(name string, call toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		start := time.Now()
		value, err := call(ctx, args(req.GetArguments()))
		if err != nil {
			s.logger.Printf("%s failed after %v: %v", name, time.Since(start), err)
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			body, _ := json.Marshal(errorResult{
				Error:     err.Error(),
				Kind:      KindName(err),
				Retryable: repo.IsRetryable(err),
			})
			return mcpgo.NewToolResultError(string(body)), nil
		}

		s.logger.Printf("%s ok (%v)", name, time.Since(start))
		body, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		return mcpgo.NewToolResultText(string(body)), nil
	}
}

const instructions = `tasktree stores tasks, their subtasks and an optional how-to guide per task.
Statuses are open, in_progress, done and cancelled. done and cancelled are final
until the task is reopened by setting it back to open. Subtask status never
changes the parent task; update the parent yourself when its subtasks are finished.
Errors with "retryable": true (storage_busy, storage_unavailable) can be retried
after a short wait.`
