package db

import (
	"context"
	"fmt"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// UpsertGuide stores guide as the how-to of its task, replacing any
// existing title and steps. CreatedAt is kept from the first insert.
//
// The task must exist; otherwise the foreign key rejects the insert with
// ErrConstraint.
func (t *Tx) UpsertGuide(ctx context.Context, guide *schema.HowTo) error {
	if err := guide.Validate(); err != nil {
		return fmt.Errorf("invalid guide: %w", err)
	}

	_, err := t.exec(ctx, `
	INSERT INTO guides (task_id, title, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(task_id) DO UPDATE SET
		title = excluded.title,
		updated_at = excluded.updated_at`,
		guide.TaskID,
		guide.Title,
		formatTime(guide.CreatedAt),
		formatTime(guide.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert guide for task %d: %w", guide.TaskID, err)
	}

	if _, err := t.exec(ctx, `DELETE FROM guide_steps WHERE task_id = ?`, guide.TaskID); err != nil {
		return fmt.Errorf("failed to clear guide steps for task %d: %w", guide.TaskID, err)
	}

	for i, step := range guide.Steps {
		if _, err := t.exec(ctx,
			`INSERT INTO guide_steps (task_id, position, body) VALUES (?, ?, ?)`,
			guide.TaskID, i, step,
		); err != nil {
			return fmt.Errorf("failed to insert guide step %d for task %d: %w", i+1, guide.TaskID, err)
		}
	}
	return nil
}

// GetGuide returns the how-to of a task. Returns ErrNoRows if the task has
// no guide.
func (t *Tx) GetGuide(ctx context.Context, taskID int64) (*schema.HowTo, error) {
	guide := schema.HowTo{TaskID: taskID, Steps: []string{}}
	var createdAt, updatedAt string

	err := t.queryRow(ctx, `SELECT title, created_at, updated_at FROM guides WHERE task_id = ?`, taskID).
		Scan(&guide.Title, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get guide for task %d: %w", taskID, classify(err))
	}
	if guide.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if guide.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	rows, err := t.query(ctx, `SELECT body FROM guide_steps WHERE task_id = ? ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guide steps for task %d: %w", taskID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan guide step: %w", classify(err))
		}
		guide.Steps = append(guide.Steps, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guide steps: %w", classify(err))
	}
	return &guide, nil
}

// DeleteGuide removes the how-to of a task and its steps.
// Returns false if the task had no guide.
func (t *Tx) DeleteGuide(ctx context.Context, taskID int64) (bool, error) {
	if _, err := t.exec(ctx, `DELETE FROM guide_steps WHERE task_id = ?`, taskID); err != nil {
		return false, fmt.Errorf("failed to delete guide steps for task %d: %w", taskID, err)
	}
	res, err := t.exec(ctx, `DELETE FROM guides WHERE task_id = ?`, taskID)
	if err != nil {
		return false, fmt.Errorf("failed to delete guide for task %d: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
