package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/tasktree/internal/repo"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
	"github.com/mschirtzinger/tasktree/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "tasks",
	Short:   "Create, inspect and change tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a new open task.

Examples:
  tasktree task add "Write report"
  tasktree task add "Write report" -d "Q3 numbers" --deadline "next friday 5pm"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		description, _ := cmd.Flags().GetString("description")
		deadlineText, _ := cmd.Flags().GetString("deadline")

		var opts []repo.TaskOption
		if deadlineText != "" {
			deadline, err := schema.ParseDeadline(deadlineText, time.Now())
			if err != nil {
				fatal("parsing deadline", err)
			}
			opts = append(opts, repo.WithDeadline(deadline))
		}

		task, err := a.repo.CreateTask(ctx, strings.Join(args, " "), description, opts...)
		if err != nil {
			fatal("creating task", err)
		}
		emit(task, func() string {
			return fmt.Sprintf("%s Created task %s: %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", task.ID)), task.Title)
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"get"},
	Short:   "Show a task with its subtasks and how-to",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		task, err := a.repo.GetTask(ctx, parseID(args[0]))
		if err != nil {
			fatal("getting task", err)
		}
		emit(task, func() string { return ui.RenderTask(task) })
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, oldest first",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		var filter repo.ListFilter
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			status := parseStatus(s)
			filter.Status = &status
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		tasks, err := a.repo.ListTasks(ctx, filter)
		if err != nil {
			fatal("listing tasks", err)
		}
		emit(tasks, func() string { return ui.RenderTaskList(tasks) })
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit the title, description or deadline of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		var patch repo.TaskPatch
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			patch.Title = &title
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			patch.Description = &description
		}
		if cmd.Flags().Changed("deadline") {
			text, _ := cmd.Flags().GetString("deadline")
			deadline, err := schema.ParseDeadline(text, time.Now())
			if err != nil {
				fatal("parsing deadline", err)
			}
			patch.Deadline = &deadline
		}
		patch.ClearDeadline, _ = cmd.Flags().GetBool("clear-deadline")

		task, err := a.repo.UpdateTask(ctx, parseID(args[0]), patch)
		if err != nil {
			fatal("updating task", err)
		}
		emit(task, func() string {
			return fmt.Sprintf("%s Updated task %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", task.ID)))
		})
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change the status of a task",
	Long: `Change the status of a task.

Valid statuses: open, in_progress, done, cancelled. A done or cancelled task
can only be reopened (set back to open).`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setTaskStatus(parseID(args[0]), parseStatus(args[1]))
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setTaskStatus(parseID(args[0]), schema.StatusDone)
	},
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a done or cancelled task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setTaskStatus(parseID(args[0]), schema.StatusOpen)
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark an unfinished task done, or reopen a finished one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recursive, _ := cmd.Flags().GetBool("recursive")

		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		task, err := a.repo.ToggleTask(ctx, parseID(args[0]), recursive)
		if err != nil {
			fatal("toggling task", err)
		}
		emit(task, func() string {
			return fmt.Sprintf("%s Task %s is %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", task.ID)), ui.RenderStatus(task.Status))
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task with its subtasks and how-to",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		id := parseID(args[0])
		if err := a.repo.DeleteTask(ctx, id); err != nil {
			fatal("deleting task", err)
		}
		emit(map[string]any{"deleted": true, "id": id}, func() string {
			return fmt.Sprintf("%s Deleted task %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", id)))
		})
	},
}

func setTaskStatus(id int64, status schema.Status) {
	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	task, err := a.repo.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		fatal("updating status", err)
	}
	emit(task, func() string {
		return fmt.Sprintf("%s Task %s is %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("#%d", task.ID)), ui.RenderStatus(task.Status))
	})
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", s)
		os.Exit(1)
	}
	return id
}

func parseStatus(s string) schema.Status {
	status, err := schema.ParseStatus(s)
	if err != nil {
		fatal("parsing status", err)
	}
	return status
}

func init() {
	taskAddCmd.Flags().StringP("description", "d", "", "Task description")
	taskAddCmd.Flags().String("deadline", "", `Deadline (RFC 3339, YYYY-MM-DD or e.g. "tomorrow 9am")`)

	taskListCmd.Flags().StringP("status", "s", "", "Only show tasks with this status")
	taskListCmd.Flags().IntP("limit", "n", 0, "Maximum number of tasks (0 = all)")

	taskUpdateCmd.Flags().String("title", "", "New title")
	taskUpdateCmd.Flags().StringP("description", "d", "", "New description")
	taskUpdateCmd.Flags().String("deadline", "", "New deadline")
	taskUpdateCmd.Flags().Bool("clear-deadline", false, "Remove the deadline")

	taskToggleCmd.Flags().BoolP("recursive", "r", false, "Apply the new status to the subtasks too")

	taskCmd.AddCommand(taskAddCmd, taskShowCmd, taskListCmd, taskUpdateCmd,
		taskStatusCmd, taskDoneCmd, taskReopenCmd, taskToggleCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
