package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/repo"
	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

// storeStatus is the output of the status command.
type storeStatus struct {
	ConfigFile    string      `json:"config_file" yaml:"config_file"`
	Database      string      `json:"database" yaml:"database"`
	SchemaVersion int         `json:"schema_version" yaml:"schema_version"`
	LatestSchema  int         `json:"latest_schema" yaml:"latest_schema"`
	LegacyFile    string      `json:"legacy_file,omitempty" yaml:"legacy_file,omitempty"`
	Stats         *repo.Stats `json:"stats" yaml:"stats"`
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "setup",
	Short:   "Show store location, schema version and task counts",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		version, err := a.db.SchemaVersion(ctx)
		if err != nil {
			fatal("reading schema version", err)
		}
		stats, err := a.repo.Stats(ctx)
		if err != nil {
			fatal("counting tasks", err)
		}

		st := storeStatus{
			ConfigFile:    a.cfg.File,
			Database:      a.db.Path(),
			SchemaVersion: version,
			LatestSchema:  db.LatestSchemaVersion(),
			Stats:         stats,
		}
		if _, err := os.Stat(a.cfg.Legacy.Path); err == nil && !a.cfg.Legacy.AutoImport {
			st.LegacyFile = a.cfg.Legacy.Path
		}

		emit(st, func() string { return renderStatus(st) })
	},
}

func renderStatus(st storeStatus) string {
	var b strings.Builder

	configFile := st.ConfigFile
	if configFile == "" {
		configFile = ui.RenderMuted("(defaults)")
	}
	fmt.Fprintf(&b, "Config:   %s\n", configFile)
	fmt.Fprintf(&b, "Database: %s\n", st.Database)
	schemaLine := fmt.Sprintf("v%d", st.SchemaVersion)
	if st.SchemaVersion < st.LatestSchema {
		schemaLine = ui.RenderWarn(fmt.Sprintf("v%d (latest v%d)", st.SchemaVersion, st.LatestSchema))
	}
	fmt.Fprintf(&b, "Schema:   %s\n", schemaLine)

	fmt.Fprintf(&b, "\nTasks:    %s\n", ui.RenderAccent(fmt.Sprintf("%d", st.Stats.Tasks)))
	for _, status := range schema.Statuses {
		if n := st.Stats.ByStatus[status]; n > 0 {
			fmt.Fprintf(&b, "  %-12s %d\n", ui.RenderStatus(status), n)
		}
	}
	fmt.Fprintf(&b, "Subtasks: %s\n", ui.RenderAccent(fmt.Sprintf("%d", st.Stats.Subtasks)))

	if st.LegacyFile != "" {
		fmt.Fprintf(&b, "\n%s Legacy file %s is present but was not imported (legacy.auto_import is off)\n",
			ui.RenderWarn("!"), st.LegacyFile)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
