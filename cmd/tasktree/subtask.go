package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/ui"
)

var subtaskCmd = &cobra.Command{
	Use:     "subtask",
	GroupID: "tasks",
	Short:   "Add, complete and remove subtasks",
	Long: `Manage subtasks.

A subtask's status never changes its parent task: completing every subtask
leaves the task open until you mark it done yourself.`,
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Add an open subtask to a task",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		sub, err := a.repo.AddSubtask(ctx, parseID(args[0]), strings.Join(args[1:], " "))
		if err != nil {
			fatal("adding subtask", err)
		}
		emit(sub, func() string {
			return fmt.Sprintf("%s Added subtask %s to task %s\n", ui.RenderPass("✓"),
				ui.RenderAccent(fmt.Sprintf("#%d", sub.ID)), ui.RenderAccent(fmt.Sprintf("#%d", sub.TaskID)))
		})
	},
}

var subtaskStatusCmd = &cobra.Command{
	Use:   "status <subtask-id> <status>",
	Short: "Change the status of a subtask",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		sub, err := a.repo.UpdateSubtaskStatus(ctx, parseID(args[0]), parseStatus(args[1]))
		if err != nil {
			fatal("updating subtask", err)
		}
		emit(sub, func() string {
			return fmt.Sprintf("%s Subtask %s is %s\n", ui.RenderPass("✓"),
				ui.RenderAccent(fmt.Sprintf("#%d", sub.ID)), ui.RenderStatus(sub.Status))
		})
	},
}

var subtaskRemoveCmd = &cobra.Command{
	Use:     "remove <subtask-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a subtask",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		id := parseID(args[0])
		if err := a.repo.RemoveSubtask(ctx, id); err != nil {
			fatal("removing subtask", err)
		}
		emit(map[string]any{"deleted": true, "id": id}, func() string {
			return fmt.Sprintf("%s Removed subtask %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", id)))
		})
	},
}

var subtaskMoveCmd = &cobra.Command{
	Use:   "move <subtask-id> <task-id>",
	Short: "Move a subtask to another task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		sub, err := a.repo.MoveSubtask(ctx, parseID(args[0]), parseID(args[1]))
		if err != nil {
			fatal("moving subtask", err)
		}
		emit(sub, func() string {
			return fmt.Sprintf("%s Subtask %s now belongs to task %s\n", ui.RenderPass("✓"),
				ui.RenderAccent(fmt.Sprintf("#%d", sub.ID)), ui.RenderAccent(fmt.Sprintf("#%d", sub.TaskID)))
		})
	},
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskStatusCmd, subtaskMoveCmd, subtaskRemoveCmd)
	rootCmd.AddCommand(subtaskCmd)
}
