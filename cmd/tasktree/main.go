package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mschirtzinger/tasktree/internal/config"
	"github.com/mschirtzinger/tasktree/internal/logging"
	"github.com/mschirtzinger/tasktree/internal/repo"
	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/migrate"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	dbPath     string
	format     string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "tasktree",
	Short: "Tasks, subtasks and how-to guides in a local SQLite store",
	Long: `tasktree keeps a hierarchy of tasks in a single SQLite file and serves it
to agents over the Model Context Protocol.

Tasks own subtasks and at most one how-to guide. Statuses are open,
in_progress, done and cancelled; done and cancelled are final until reopened.

A legacy tasks.json from the flat-file server is imported automatically the
first time the store is opened.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColor()
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Working with tasks:"},
		&cobra.Group{ID: "setup", Title: "Setup and serving:"},
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .tasktree/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides storage.path)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fatal prints "Error <what>: <err>" and exits.
func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if repo.IsRetryable(err) {
		fmt.Fprintf(os.Stderr, "The store is busy or unavailable; try again shortly.\n")
	}
	os.Exit(1)
}

// loadConfig reads --config if given. Otherwise it looks for the nearest
// project root holding .tasktree and reads its config, with relative paths
// taken from that root.
func loadConfig() (cfg *config.Config, root string) {
	path := configPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			fatal("loading config", err)
		}
	} else {
		dir, found, err := config.FindRoot(".")
		if err != nil {
			fatal("locating project", err)
		}
		if found {
			root = dir
			path = filepath.Join(root, config.DefaultPath)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatal("loading config", err)
	}
	if root != "" {
		cfg.Resolve(root)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg, root
}

// app is an opened store with its repository.
type app struct {
	cfg  *config.Config
	root string // discovered project root, empty with --config
	db   *db.DB
	repo *repo.Repository
	logs *logging.Sink
}

// openApp opens the store, runs the legacy import if configured, and
// returns the ready repository. It exits on failure.
func openApp(ctx context.Context) *app {
	return openStore(ctx, true)
}

// openAppWithoutImport is openApp for commands that import explicitly.
func openAppWithoutImport(ctx context.Context) *app {
	return openStore(ctx, false)
}

func openStore(ctx context.Context, autoImport bool) *app {
	cfg, root := loadConfig()

	logs, err := logging.Open(cfg.Log)
	if err != nil {
		fatal("opening log file", err)
	}

	database, err := db.Initialize(ctx, cfg.Storage.Path, cfg.StorageOptions())
	if err != nil {
		_ = logs.Close()
		fatal("opening database", err)
	}

	a := &app{
		cfg:  cfg,
		root: root,
		db:   database,
		repo: repo.New(database, logs.Logger("repo")),
		logs: logs,
	}

	if autoImport && cfg.Legacy.AutoImport {
		result, err := migrate.ImportIfPresent(ctx, cfg.Legacy.Path, a.repo, logs.Logger("import"))
		if err != nil {
			a.Close()
			fatal("importing legacy tasks", err)
		}
		if result.TasksImported > 0 && format == "text" {
			fmt.Fprintf(os.Stderr, "%s Imported %d tasks from %s\n",
				ui.RenderPass("✓"), result.TasksImported, cfg.Legacy.Path)
		}
	}
	return a
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	_ = a.logs.Close()
}

// emit writes v in the selected --format, using text() for the text form.
func emit(v any, text func() string) {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fatal("encoding JSON", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			fatal("encoding YAML", err)
		}
		_ = enc.Close()
	case "text":
		fmt.Print(text())
	default:
		fatal("writing output", fmt.Errorf("unknown format %q (want text, json or yaml)", format))
	}
}
