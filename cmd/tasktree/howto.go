package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/ui"
)

var howtoCmd = &cobra.Command{
	Use:     "howto",
	GroupID: "tasks",
	Short:   "Attach or remove a task's how-to guide",
}

var howtoSetCmd = &cobra.Command{
	Use:   "set <task-id> <step>...",
	Short: "Set the how-to of a task, replacing any existing guide",
	Long: `Set the how-to of a task. Each remaining argument is one step, in order.

Example:
  tasktree howto set 3 "Open editor" "Type outline" --title "Drafting"`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		title, _ := cmd.Flags().GetString("title")
		guide, err := a.repo.SetHowTo(ctx, parseID(args[0]), title, args[1:])
		if err != nil {
			fatal("setting how-to", err)
		}
		emit(guide, func() string {
			return fmt.Sprintf("%s Set how-to with %d steps on task %s\n", ui.RenderPass("✓"),
				len(guide.Steps), ui.RenderAccent(fmt.Sprintf("#%d", guide.TaskID)))
		})
	},
}

var howtoRemoveCmd = &cobra.Command{
	Use:     "remove <task-id>",
	Aliases: []string{"rm"},
	Short:   "Remove the how-to of a task (no error if there is none)",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		id := parseID(args[0])
		removed, err := a.repo.RemoveHowTo(ctx, id)
		if err != nil {
			fatal("removing how-to", err)
		}
		emit(map[string]any{"deleted": removed, "task_id": id}, func() string {
			if !removed {
				return fmt.Sprintf("%s Task %s has no how-to\n", ui.RenderMuted("-"), ui.RenderAccent(fmt.Sprintf("#%d", id)))
			}
			return fmt.Sprintf("%s Removed how-to from task %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", id)))
		})
	},
}

func init() {
	howtoSetCmd.Flags().String("title", "", "Guide title")
	howtoCmd.AddCommand(howtoSetCmd, howtoRemoveCmd)
	rootCmd.AddCommand(howtoCmd)
}
