package db

import (
	"context"
	"fmt"
	"time"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

const subtaskColumns = `id, task_id, title, status, created_at, updated_at`

// InsertSubtask inserts sub under its parent task and sets sub.ID.
//
// The parent reference is enforced by a foreign key: inserting a subtask
// for a task that does not exist fails with ErrConstraint.
func (t *Tx) InsertSubtask(ctx context.Context, sub *schema.Subtask) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("invalid subtask: %w", err)
	}

	res, err := t.exec(ctx, `
	INSERT INTO subtasks (task_id, title, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`,
		sub.TaskID,
		sub.Title,
		string(sub.Status),
		formatTime(sub.CreatedAt),
		formatTime(sub.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert subtask for task %d: %w", sub.TaskID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read subtask id: %w", err)
	}
	sub.ID = id
	return nil
}

// GetSubtask retrieves a subtask by ID. Returns ErrNoRows if absent.
func (t *Tx) GetSubtask(ctx context.Context, id int64) (*schema.Subtask, error) {
	var sub schema.Subtask
	var status, createdAt, updatedAt string

	err := t.queryRow(ctx, `SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id).
		Scan(&sub.ID, &sub.TaskID, &sub.Title, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get subtask %d: %w", id, classify(err))
	}
	if err := fillSubtask(&sub, status, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubtasks returns the subtasks of a task in insertion order.
func (t *Tx) ListSubtasks(ctx context.Context, taskID int64) ([]*schema.Subtask, error) {
	rows, err := t.query(ctx, `SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks for task %d: %w", taskID, err)
	}
	defer rows.Close()

	subs := []*schema.Subtask{}
	for rows.Next() {
		var sub schema.Subtask
		var status, createdAt, updatedAt string
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Title, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", classify(err))
		}
		if err := fillSubtask(&sub, status, createdAt, updatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subtasks: %w", classify(err))
	}
	return subs, nil
}

// UpdateSubtask writes the title, status and updated_at of sub.
// Returns ErrNoRows if the subtask does not exist.
func (t *Tx) UpdateSubtask(ctx context.Context, sub *schema.Subtask) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("invalid subtask: %w", err)
	}

	res, err := t.exec(ctx, `UPDATE subtasks SET title = ?, status = ?, updated_at = ? WHERE id = ?`,
		sub.Title, string(sub.Status), formatTime(sub.UpdatedAt), sub.ID)
	if err != nil {
		return fmt.Errorf("failed to update subtask %d: %w", sub.ID, err)
	}
	return requireAffected(res, "subtask", sub.ID)
}

// MoveSubtask reparents a subtask under taskID and sets its updated_at.
// Returns ErrNoRows if the subtask does not exist and ErrConstraint if the
// target task does not.
func (t *Tx) MoveSubtask(ctx context.Context, id, taskID int64, updatedAt time.Time) error {
	res, err := t.exec(ctx, `UPDATE subtasks SET task_id = ?, updated_at = ? WHERE id = ?`,
		taskID, formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("failed to move subtask %d to task %d: %w", id, taskID, err)
	}
	return requireAffected(res, "subtask", id)
}

// DeleteSubtask removes one subtask. Returns false if it did not exist.
func (t *Tx) DeleteSubtask(ctx context.Context, id int64) (bool, error) {
	res, err := t.exec(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete subtask %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteSubtasksForTask removes every subtask of a task and returns how many
// were deleted.
func (t *Tx) DeleteSubtasksForTask(ctx context.Context, taskID int64) (int64, error) {
	res, err := t.exec(ctx, `DELETE FROM subtasks WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subtasks for task %d: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

func fillSubtask(sub *schema.Subtask, status, createdAt, updatedAt string) error {
	var err error
	sub.Status = schema.Status(status)
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}
	return nil
}
