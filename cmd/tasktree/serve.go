package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/config"
	"github.com/mschirtzinger/tasktree/internal/mcp"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "setup",
	Short:   "Serve the task store over MCP on stdin/stdout",
	Long: `Serve the task store to an MCP client over stdin/stdout.

Stdout carries only protocol messages. Diagnostics go to stderr, or to
log.file when it is set. The legacy import runs before the first request
is accepted.

Edits to the config file are picked up for logging only; storage settings
take effect on the next start.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// ANSI on stderr would end up in client log panes
		ui.DisableColor()

		a := openApp(ctx)
		defer a.Close()

		logger := a.logs.Logger("serve")
		if a.cfg.File != "" {
			if w, err := watchConfig(ctx, a.cfg, a.root, logger); err != nil {
				logger.Printf("Warning: config watcher disabled: %v", err)
			} else {
				defer func() { _ = w.Stop() }()
			}
		}

		mcp.Version = Version
		srv := mcp.New(mcp.Config{
			Name:       a.cfg.Server.Name,
			Repository: a.repo,
			Logger:     a.logs.Logger("mcp"),
		})

		logger.Printf("Serving %s (store %s)", a.cfg.Server.Name, a.db.Path())
		if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			a.Close()
			fatal("serving", err)
		}
		logger.Printf("Shutting down")
	},
}

// watchConfig logs edits to the active config file until ctx is done.
func watchConfig(ctx context.Context, current *config.Config, root string, logger *log.Logger) (*config.Watcher, error) {
	w, err := config.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Start(current.File); err != nil {
		_ = w.Stop()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-w.Changes():
				if !ok {
					return
				}
				if change.Op == config.OpRemove {
					logger.Printf("Config %s was removed; keeping current settings", change.Path)
					continue
				}
				next, err := config.Load(change.Path)
				if err != nil {
					logger.Printf("Warning: ignoring config change: %v", err)
					continue
				}
				if root != "" {
					next.Resolve(root)
				}
				if dbPath != "" {
					next.Storage.Path = dbPath
				}
				if next.Storage != current.Storage {
					logger.Printf("Storage settings changed in %s; restart to apply", change.Path)
				} else {
					logger.Printf("Reloaded %s", change.Path)
				}
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				logger.Printf("Warning: config watcher: %v", err)
			}
		}
	}()
	return w, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
