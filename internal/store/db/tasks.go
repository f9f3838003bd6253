package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

const taskColumns = `id, title, description, status, deadline, created_at, updated_at`

// InsertTask inserts a new task and sets task.ID to the assigned key.
func (t *Tx) InsertTask(ctx context.Context, task *schema.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	res, err := t.exec(ctx, `
	INSERT INTO tasks (title, description, status, deadline, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		task.Title,
		task.Description,
		string(task.Status),
		timeToNullString(task.Deadline),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	task.ID = id
	return nil
}

// GetTask retrieves a single task row by ID, without subtasks or guide.
// Returns ErrNoRows if the task is not found.
func (t *Tx) GetTask(ctx context.Context, id int64) (*schema.Task, error) {
	row := t.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, classify(err))
	}
	return task, nil
}

// TaskExists reports whether a task with the given ID exists.
func (t *Tx) TaskExists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check task %d: %w", id, classify(err))
	}
	return n > 0, nil
}

// ListTasksFilter configures the ListTasks query.
type ListTasksFilter struct {
	// Status filters by task status (empty = all statuses)
	Status schema.Status
	// Limit restricts the number of results (0 = no limit)
	Limit int
}

// ListTasks returns task summaries ordered by creation time ascending.
func (t *Tx) ListTasks(ctx context.Context, filter ListTasksFilter) ([]*schema.TaskSummary, error) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, string(filter.Status))
	}

	query := `
	SELECT t.id, t.title, t.status, t.deadline, t.created_at, t.updated_at,
	       (SELECT COUNT(*) FROM subtasks s WHERE s.task_id = t.id),
	       EXISTS (SELECT 1 FROM guides g WHERE g.task_id = t.id)
	FROM tasks t
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at ASC, t.id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	summaries := []*schema.TaskSummary{}
	for rows.Next() {
		var s schema.TaskSummary
		var status, createdAt, updatedAt string
		var deadline sql.NullString
		var hasGuide int

		if err := rows.Scan(&s.ID, &s.Title, &status, &deadline, &createdAt, &updatedAt, &s.SubtaskCount, &hasGuide); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", classify(err))
		}
		s.Status = schema.Status(status)
		s.Deadline = nullStringToTime(deadline)
		s.HasHowTo = hasGuide != 0
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", classify(err))
	}
	return summaries, nil
}

// UpdateTask writes the mutable fields of task (title, description, status,
// deadline, updated_at). Returns ErrNoRows if the task does not exist.
func (t *Tx) UpdateTask(ctx context.Context, task *schema.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	res, err := t.exec(ctx, `
	UPDATE tasks SET
		title = ?,
		description = ?,
		status = ?,
		deadline = ?,
		updated_at = ?
	WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		timeToNullString(task.Deadline),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", task.ID, err)
	}
	return requireAffected(res, "task", task.ID)
}

// DeleteTask removes a task row. Subtasks and guide rows go with it through
// the cascading foreign keys. Returns false if no such task existed.
func (t *Tx) DeleteTask(ctx context.Context, id int64) (bool, error) {
	res, err := t.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// CountTasks returns the total number of tasks.
func (t *Tx) CountTasks(ctx context.Context) (int, error) {
	var count int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get task count: %w", classify(err))
	}
	return count, nil
}

// CountSubtasks returns the total number of subtasks in the store.
func (t *Tx) CountSubtasks(ctx context.Context) (int, error) {
	var count int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM subtasks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get subtask count: %w", classify(err))
	}
	return count, nil
}

func scanTask(row *sql.Row) (*schema.Task, error) {
	var task schema.Task
	var status, createdAt, updatedAt string
	var deadline sql.NullString

	if err := row.Scan(&task.ID, &task.Title, &task.Description, &status, &deadline, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	task.Status = schema.Status(status)
	task.Deadline = nullStringToTime(deadline)
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	task.Subtasks = []*schema.Subtask{}
	return &task, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNoRows)
	}
	return nil
}

// CountTasksByStatus returns the number of tasks in each status. Statuses
// with no tasks are absent from the map.
func (t *Tx) CountTasksByStatus(ctx context.Context) (map[schema.Status]int, error) {
	rows, err := t.query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[schema.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", classify(err))
		}
		counts[schema.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", classify(err))
	}
	return counts, nil
}
