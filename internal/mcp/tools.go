package mcp

import (
	"context"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/mschirtzinger/tasktree/internal/repo"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

func (s *Server) toolset() []tool {
	statusDesc := mcpgo.Description("One of open, in_progress, done, cancelled")

	return []tool{
		{
			def: mcpgo.NewTool("task_create",
				mcpgo.WithDescription("Create a task. It starts open."),
				mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Task title")),
				mcpgo.WithString("description", mcpgo.Description("Longer description")),
				mcpgo.WithString("deadline", mcpgo.Description(`Due date: RFC 3339, YYYY-MM-DD, or phrases like "next friday 5pm"`)),
			),
			call: s.taskCreate,
		},
		{
			def: mcpgo.NewTool("task_get",
				mcpgo.WithDescription("Get a task with its subtasks and how-to."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Task ID")),
			),
			call: s.taskGet,
		},
		{
			def: mcpgo.NewTool("task_list",
				mcpgo.WithDescription("List tasks, oldest first."),
				mcpgo.WithString("status", statusDesc),
				mcpgo.WithNumber("limit", mcpgo.Description("Maximum number of tasks")),
			),
			call: s.taskList,
		},
		{
			def: mcpgo.NewTool("task_update",
				mcpgo.WithDescription("Edit the title, description or deadline of a task. Omitted fields are unchanged."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Task ID")),
				mcpgo.WithString("title", mcpgo.Description("New title")),
				mcpgo.WithString("description", mcpgo.Description("New description")),
				mcpgo.WithString("deadline", mcpgo.Description("New deadline")),
				mcpgo.WithBoolean("clear_deadline", mcpgo.Description("Remove the deadline")),
			),
			call: s.taskUpdate,
		},
		{
			def: mcpgo.NewTool("task_set_status",
				mcpgo.WithDescription("Change the status of a task. done and cancelled can only be left by reopening (status open)."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Task ID")),
				mcpgo.WithString("status", mcpgo.Required(), statusDesc),
			),
			call: s.taskSetStatus,
		},
		{
			def: mcpgo.NewTool("task_toggle",
				mcpgo.WithDescription("Mark an unfinished task done, or reopen a finished one."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Task ID")),
				mcpgo.WithBoolean("recursive", mcpgo.Description("Apply the new status to the subtasks too")),
			),
			call: s.taskToggle,
		},
		{
			def: mcpgo.NewTool("task_delete",
				mcpgo.WithDescription("Delete a task together with its subtasks and how-to."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Task ID")),
			),
			call: s.taskDelete,
		},
		{
			def: mcpgo.NewTool("subtask_add",
				mcpgo.WithDescription("Add an open subtask to a task."),
				mcpgo.WithNumber("task_id", mcpgo.Required(), mcpgo.Description("Parent task ID")),
				mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Subtask title")),
			),
			call: s.subtaskAdd,
		},
		{
			def: mcpgo.NewTool("subtask_set_status",
				mcpgo.WithDescription("Change the status of a subtask. The parent task is not affected."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Subtask ID")),
				mcpgo.WithString("status", mcpgo.Required(), statusDesc),
			),
			call: s.subtaskSetStatus,
		},
		{
			def: mcpgo.NewTool("subtask_remove",
				mcpgo.WithDescription("Delete one subtask."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Subtask ID")),
			),
			call: s.subtaskRemove,
		},
		{
			def: mcpgo.NewTool("subtask_move",
				mcpgo.WithDescription("Move a subtask to another task."),
				mcpgo.WithNumber("id", mcpgo.Required(), mcpgo.Description("Subtask ID")),
				mcpgo.WithNumber("task_id", mcpgo.Required(), mcpgo.Description("New parent task ID")),
			),
			call: s.subtaskMove,
		},
		{
			def: mcpgo.NewTool("howto_set",
				mcpgo.WithDescription("Attach a how-to guide to a task, replacing any existing guide."),
				mcpgo.WithNumber("task_id", mcpgo.Required(), mcpgo.Description("Task ID")),
				mcpgo.WithArray("steps", mcpgo.Required(), mcpgo.Description("Ordered steps"),
					mcpgo.Items(map[string]any{"type": "string"})),
				mcpgo.WithString("title", mcpgo.Description("Guide title")),
			),
			call: s.howtoSet,
		},
		{
			def: mcpgo.NewTool("howto_remove",
				mcpgo.WithDescription("Remove the how-to guide of a task. Succeeds if there is none."),
				mcpgo.WithNumber("task_id", mcpgo.Required(), mcpgo.Description("Task ID")),
			),
			call: s.howtoRemove,
		},
	}
}

// deleted is the result of removal tools.
type deleted struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

func (s *Server) taskCreate(ctx context.Context, a args) (any, error) {
	title, err := a.requireString("title")
	if err != nil {
		return nil, err
	}
	description, err := a.optionalString("description")
	if err != nil {
		return nil, err
	}

	var opts []repo.TaskOption
	if a.has("deadline") {
		deadline, err := s.deadline(a)
		if err != nil {
			return nil, err
		}
		opts = append(opts, repo.WithDeadline(deadline))
	}

	var desc string
	if description != nil {
		desc = *description
	}
	return s.repo.CreateTask(ctx, title, desc, opts...)
}

func (s *Server) taskGet(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	return s.repo.GetTask(ctx, id)
}

func (s *Server) taskList(ctx context.Context, a args) (any, error) {
	var filter repo.ListFilter
	if a.has("status") {
		status, err := s.status(a)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	limit, err := a.optionalInt("limit")
	if err != nil {
		return nil, err
	}
	filter.Limit = limit
	return s.repo.ListTasks(ctx, filter)
}

func (s *Server) taskUpdate(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}

	var patch repo.TaskPatch
	if patch.Title, err = a.optionalString("title"); err != nil {
		return nil, err
	}
	if patch.Description, err = a.optionalString("description"); err != nil {
		return nil, err
	}
	if patch.ClearDeadline, err = a.optionalBool("clear_deadline"); err != nil {
		return nil, err
	}
	if a.has("deadline") {
		deadline, err := s.deadline(a)
		if err != nil {
			return nil, err
		}
		patch.Deadline = &deadline
	}
	return s.repo.UpdateTask(ctx, id, patch)
}

func (s *Server) taskSetStatus(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	status, err := s.status(a)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateTaskStatus(ctx, id, status)
}

func (s *Server) taskToggle(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	recursive, err := a.optionalBool("recursive")
	if err != nil {
		return nil, err
	}
	return s.repo.ToggleTask(ctx, id, recursive)
}

func (s *Server) taskDelete(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return nil, err
	}
	return deleted{Deleted: true, ID: id}, nil
}

func (s *Server) subtaskAdd(ctx context.Context, a args) (any, error) {
	taskID, err := a.requireID("task_id")
	if err != nil {
		return nil, err
	}
	title, err := a.requireString("title")
	if err != nil {
		return nil, err
	}
	return s.repo.AddSubtask(ctx, taskID, title)
}

func (s *Server) subtaskSetStatus(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	status, err := s.status(a)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateSubtaskStatus(ctx, id, status)
}

func (s *Server) subtaskRemove(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveSubtask(ctx, id); err != nil {
		return nil, err
	}
	return deleted{Deleted: true, ID: id}, nil
}

func (s *Server) subtaskMove(ctx context.Context, a args) (any, error) {
	id, err := a.requireID("id")
	if err != nil {
		return nil, err
	}
	taskID, err := a.requireID("task_id")
	if err != nil {
		return nil, err
	}
	return s.repo.MoveSubtask(ctx, id, taskID)
}

func (s *Server) howtoSet(ctx context.Context, a args) (any, error) {
	taskID, err := a.requireID("task_id")
	if err != nil {
		return nil, err
	}
	steps, err := a.requireStrings("steps")
	if err != nil {
		return nil, err
	}
	title, err := a.optionalString("title")
	if err != nil {
		return nil, err
	}
	var t string
	if title != nil {
		t = *title
	}
	return s.repo.SetHowTo(ctx, taskID, t, steps)
}

func (s *Server) howtoRemove(ctx context.Context, a args) (any, error) {
	taskID, err := a.requireID("task_id")
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.RemoveHowTo(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return deleted{Deleted: removed, ID: taskID}, nil
}

func (s *Server) status(a args) (schema.Status, error) {
	raw, err := a.requireString("status")
	if err != nil {
		return "", err
	}
	status, err := schema.ParseStatus(raw)
	if err != nil {
		return "", argError("%v", err)
	}
	return status, nil
}

func (s *Server) deadline(a args) (time.Time, error) {
	raw, err := a.requireString("deadline")
	if err != nil {
		return time.Time{}, err
	}
	deadline, err := schema.ParseDeadline(raw, s.now())
	if err != nil {
		return time.Time{}, argError("%v", err)
	}
	return deadline, nil
}
