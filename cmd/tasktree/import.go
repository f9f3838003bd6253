package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/store/migrate"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import [path]",
	GroupID: "setup",
	Short:   "Import a legacy tasks.json file",
	Long: `Import tasks from the flat-file tasks.json format.

The file may be a JSON array of tasks, the contexts envelope written by later
versions of the flat-file server, or JSON Lines. Nested subtasks are
flattened under their top-level task and how_to_guide text becomes a how-to.

Malformed records are skipped with a warning. Importing the same file twice
never duplicates tasks. After a successful import the file is renamed to
<path>.imported unless --keep is given.

Without a path, legacy.path from the config is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		keep, _ := cmd.Flags().GetBool("keep")

		ctx := context.Background()
		a := openAppWithoutImport(ctx)
		defer a.Close()

		path := a.cfg.Legacy.Path
		if len(args) == 1 {
			path = args[0]
		}

		result, err := migrate.Import(ctx, migrate.Options{
			Path:       path,
			Repository: a.repo,
			Logger:     a.logs.Logger("import"),
			DryRun:     dryRun,
			KeepSource: keep,
		})
		if err != nil {
			fatal("importing", err)
		}
		emit(result, func() string { return renderImport(result, dryRun) })
	},
}

func renderImport(r *migrate.ImportResult, dryRun bool) string {
	var b strings.Builder
	switch {
	case r.Digest == "":
		fmt.Fprintf(&b, "%s No legacy file at %s\n", ui.RenderMuted("-"), r.Path)
		return b.String()
	case r.AlreadyImported:
		fmt.Fprintf(&b, "%s %s was already imported\n", ui.RenderWarn("!"), r.Path)
	case dryRun:
		fmt.Fprintf(&b, "%s Would import %d tasks (%d subtasks, %d how-tos)\n", ui.RenderAccent("→"),
			r.TasksImported, r.SubtasksCreated, r.GuidesCreated)
	default:
		fmt.Fprintf(&b, "%s Imported %d tasks (%d subtasks, %d how-tos)\n", ui.RenderPass("✓"),
			r.TasksImported, r.SubtasksCreated, r.GuidesCreated)
	}

	if r.Skipped > 0 {
		fmt.Fprintf(&b, "%s Skipped %d records\n", ui.RenderWarn("!"), r.Skipped)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  %s\n", ui.RenderMuted(w))
	}
	if r.RetiredTo != "" {
		fmt.Fprintf(&b, "Moved %s to %s\n", r.Path, r.RetiredTo)
	}
	return b.String()
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "Parse and report without writing")
	importCmd.Flags().Bool("keep", false, "Leave the legacy file in place")
	rootCmd.AddCommand(importCmd)
}
