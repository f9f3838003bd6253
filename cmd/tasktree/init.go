package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mschirtzinger/tasktree/internal/config"
	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Create the config file and an empty task store",
	Long: `Create .tasktree/config.toml with default settings and initialize the
database it points at. Existing files are left alone unless --force is given
(the database is never recreated, only migrated).

On a terminal, init asks for the database path and whether to import a
legacy tasks.json automatically. Pass --yes to accept the defaults.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		yes, _ := cmd.Flags().GetBool("yes")

		path := configPath
		if path == "" {
			path = config.DefaultPath
		}

		cfg := config.Default()
		if dbPath != "" {
			cfg.Storage.Path = dbPath
		}

		if _, err := os.Stat(path); err == nil && !force {
			fmt.Printf("%s Config %s already exists\n", ui.RenderWarn("!"), path)
		} else {
			if !yes && dbPath == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				if err := promptSettings(cfg); err != nil {
					fatal("reading answers", err)
				}
			}
			if err := cfg.Write(path, force); err != nil {
				fatal("writing config", err)
			}
			fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		}

		loaded, err := config.Load(path)
		if err != nil {
			fatal("loading config", err)
		}
		if dbPath != "" {
			loaded.Storage.Path = dbPath
		}

		ctx := context.Background()
		database, err := db.Initialize(ctx, loaded.Storage.Path, loaded.StorageOptions())
		if err != nil {
			fatal("initializing database", err)
		}
		defer database.Close()

		version, err := database.SchemaVersion(ctx)
		if err != nil {
			fatal("reading schema version", err)
		}
		fmt.Printf("%s Database %s ready (schema v%d)\n", ui.RenderPass("✓"), loaded.Storage.Path, version)
	},
}

// promptSettings asks for the settings most projects change.
func promptSettings(cfg *config.Config) error {
	if err := huh.NewInput().
		Title("Database file").
		Value(&cfg.Storage.Path).
		Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("path is required")
			}
			return nil
		}).
		Run(); err != nil {
		return err
	}
	return huh.NewConfirm().
		Title(fmt.Sprintf("Import %s automatically when present?", cfg.Legacy.Path)).
		Value(&cfg.Legacy.AutoImport).
		Run()
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolP("yes", "y", false, "Accept defaults without prompting")
	rootCmd.AddCommand(initCmd)
}
