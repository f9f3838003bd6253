// Package repo is the domain boundary of tasktree.
//
// A Repository turns domain operations (create a task, add a subtask,
// attach a how-to, change a status) into storage transactions. It validates
// input before touching storage, enforces the status lifecycle, and
// translates storage failures into the error kinds declared in errors.go.
//
// Every method runs in its own transaction. Batch groups several calls
// into one.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// Repository provides task, subtask and how-to operations over a store.
type Repository struct {
	db     *db.DB
	tx     *db.Tx // non-nil inside Batch
	logger *log.Logger
	now    func() time.Time

	beforeTaskDelete deleteHook
}

// New returns a Repository over database. A nil logger logs to stderr.
func New(database *db.DB, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Repository{
		db:     database,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Batch runs fn with a Repository bound to a single write transaction.
// If fn returns an error nothing it did is kept. Nested Batch calls join
// the outer transaction.
func (r *Repository) Batch(ctx context.Context, fn func(*Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	err := r.db.RunInTx(ctx, func(tx *db.Tx) error {
		bound := *r
		bound.tx = tx
		return fn(&bound)
	})
	return translate(err)
}

func (r *Repository) write(ctx context.Context, fn func(tx *db.Tx) error) error {
	if r.tx != nil {
		return translate(fn(r.tx))
	}
	return translate(r.db.RunInTx(ctx, fn))
}

func (r *Repository) read(ctx context.Context, fn func(tx *db.Tx) error) error {
	if r.tx != nil {
		return translate(fn(r.tx))
	}
	return translate(r.db.RunReadTx(ctx, fn))
}

// CreateTask creates an open task and returns it with its assigned ID.
// A blank title is ErrInvalidInput and nothing is written.
func (r *Repository) CreateTask(ctx context.Context, title, description string, opts ...TaskOption) (*schema.Task, error) {
	clean, err := schema.CleanTitle(title)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	now := r.now()
	task := &schema.Task{
		Title:       clean,
		Description: strings.TrimSpace(description),
		Status:      schema.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(task)
	}
	if !task.Status.Valid() {
		return nil, invalidInput("unknown status %q", task.Status)
	}
	task.SetDefaults(now)

	err = r.write(ctx, func(tx *db.Tx) error {
		return tx.InsertTask(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTask returns the task with its subtasks (in insertion order) and its
// how-to, read from one snapshot.
func (r *Repository) GetTask(ctx context.Context, id int64) (*schema.Task, error) {
	var task *schema.Task
	err := r.read(ctx, func(tx *db.Tx) error {
		var err error
		task, err = loadTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns task summaries in ascending creation order.
func (r *Repository) ListTasks(ctx context.Context, filter ListFilter) ([]*schema.TaskSummary, error) {
	query := db.ListTasksFilter{Limit: filter.Limit}
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, invalidInput("unknown status %q", *filter.Status)
		}
		query.Status = *filter.Status
	}

	var tasks []*schema.TaskSummary
	err := r.read(ctx, func(tx *db.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CountTasks returns the number of tasks in the store.
func (r *Repository) CountTasks(ctx context.Context) (int, error) {
	var n int
	err := r.read(ctx, func(tx *db.Tx) error {
		var err error
		n, err = tx.CountTasks(ctx)
		return err
	})
	return n, err
}

// UpdateTaskStatus moves a task to status.
//
// Setting the current status again is accepted and leaves UpdatedAt alone.
// Leaving done or cancelled for anything but open is ErrInvalidTransition.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id int64, status schema.Status) (*schema.Task, error) {
	if !status.Valid() {
		return nil, invalidInput("unknown status %q", status)
	}

	var task *schema.Task
	err := r.write(ctx, func(tx *db.Tx) error {
		current, err := loadTask(ctx, tx, id)
		if err != nil {
			return err
		}
		changed, err := schema.CheckTransition(current.Status, status)
		if err != nil {
			return fmt.Errorf("task %d: %w", id, err)
		}
		task = current
		if !changed {
			return nil
		}
		task.Status = status
		task.UpdatedAt = r.now()
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleTask marks an unfinished task done, or reopens a done or cancelled
// one, in one transaction.
//
// With recursive set, the subtasks follow: completing marks every open or
// in-progress subtask done, reopening reopens every finished one. A
// cancelled subtask is left alone when the parent is completed.
func (r *Repository) ToggleTask(ctx context.Context, id int64, recursive bool) (*schema.Task, error) {
	var task *schema.Task
	err := r.write(ctx, func(tx *db.Tx) error {
		current, err := loadTask(ctx, tx, id)
		if err != nil {
			return err
		}

		next := schema.StatusDone
		if current.Status.Terminal() {
			next = schema.StatusOpen
		}
		now := r.now()
		current.Status = next
		current.UpdatedAt = now
		if err := tx.UpdateTask(ctx, current); err != nil {
			return err
		}

		if recursive {
			for _, sub := range current.Subtasks {
				changed, err := schema.CheckTransition(sub.Status, next)
				if err != nil || !changed {
					continue
				}
				sub.Status = next
				sub.UpdatedAt = now
				if err := tx.UpdateSubtask(ctx, sub); err != nil {
					return err
				}
			}
		}
		task = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial edit to a task's title, description or
// deadline. An empty patch is a no-op.
func (r *Repository) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*schema.Task, error) {
	var title string
	if patch.Title != nil {
		clean, err := schema.CleanTitle(*patch.Title)
		if err != nil {
			return nil, invalidInput("%v", err)
		}
		title = clean
	}
	if patch.Deadline != nil && patch.ClearDeadline {
		return nil, invalidInput("deadline and clear_deadline are mutually exclusive")
	}

	var task *schema.Task
	err := r.write(ctx, func(tx *db.Tx) error {
		current, err := loadTask(ctx, tx, id)
		if err != nil {
			return err
		}
		task = current
		if patch.empty() {
			return nil
		}

		if patch.Title != nil {
			task.Title = title
		}
		if patch.Description != nil {
			task.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Deadline != nil {
			d := patch.Deadline.UTC()
			task.Deadline = &d
		}
		if patch.ClearDeadline {
			task.Deadline = nil
		}
		task.UpdatedAt = r.now()
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task with its how-to and subtasks in one
// transaction. Either all of it is gone afterwards or none of it is.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	err := r.write(ctx, func(tx *db.Tx) error {
		exists, err := tx.TaskExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("task", id)
		}

		if _, err := tx.DeleteGuide(ctx, id); err != nil {
			return err
		}
		removed, err := tx.DeleteSubtasksForTask(ctx, id)
		if err != nil {
			return err
		}
		if r.beforeTaskDelete != nil {
			if err := r.beforeTaskDelete(ctx, id); err != nil {
				return err
			}
		}
		if _, err := tx.DeleteTask(ctx, id); err != nil {
			return err
		}

		r.logger.Printf("Deleted task %d (%d subtasks)", id, removed)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

// AddSubtask appends an open subtask to a task.
func (r *Repository) AddSubtask(ctx context.Context, taskID int64, title string) (*schema.Subtask, error) {
	clean, err := schema.CleanTitle(title)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	now := r.now()
	sub := &schema.Subtask{
		TaskID:    taskID,
		Title:     clean,
		Status:    schema.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.write(ctx, func(tx *db.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		return tx.InsertSubtask(ctx, sub)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add subtask: %w", err)
	}
	return sub, nil
}

// UpdateSubtaskStatus moves a subtask to status under the same lifecycle
// rules as tasks. The parent task's status is never touched.
func (r *Repository) UpdateSubtaskStatus(ctx context.Context, subtaskID int64, status schema.Status) (*schema.Subtask, error) {
	if !status.Valid() {
		return nil, invalidInput("unknown status %q", status)
	}

	var sub *schema.Subtask
	err := r.write(ctx, func(tx *db.Tx) error {
		current, err := tx.GetSubtask(ctx, subtaskID)
		if errors.Is(err, db.ErrNoRows) {
			return notFound("subtask", subtaskID)
		}
		if err != nil {
			return err
		}
		changed, err := schema.CheckTransition(current.Status, status)
		if err != nil {
			return fmt.Errorf("subtask %d: %w", subtaskID, err)
		}
		sub = current
		if !changed {
			return nil
		}
		sub.Status = status
		sub.UpdatedAt = r.now()
		return tx.UpdateSubtask(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// RemoveSubtask deletes one subtask.
func (r *Repository) RemoveSubtask(ctx context.Context, subtaskID int64) error {
	return r.write(ctx, func(tx *db.Tx) error {
		deleted, err := tx.DeleteSubtask(ctx, subtaskID)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("subtask", subtaskID)
		}
		return nil
	})
}

// MoveSubtask reparents a subtask under another task. Moving it to the task
// it already belongs to is a no-op.
func (r *Repository) MoveSubtask(ctx context.Context, subtaskID, taskID int64) (*schema.Subtask, error) {
	var sub *schema.Subtask
	err := r.write(ctx, func(tx *db.Tx) error {
		current, err := tx.GetSubtask(ctx, subtaskID)
		if errors.Is(err, db.ErrNoRows) {
			return notFound("subtask", subtaskID)
		}
		if err != nil {
			return err
		}
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		sub = current
		if current.TaskID == taskID {
			return nil
		}
		sub.TaskID = taskID
		sub.UpdatedAt = r.now()
		return tx.MoveSubtask(ctx, subtaskID, taskID, sub.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SetHowTo attaches a guide to a task, replacing any existing one. Steps
// are stored in the given order; they must be non-empty and non-blank.
func (r *Repository) SetHowTo(ctx context.Context, taskID int64, title string, steps []string) (*schema.HowTo, error) {
	if len(steps) == 0 {
		return nil, invalidInput("a how-to needs at least one step")
	}
	cleaned := make([]string, len(steps))
	for i, step := range steps {
		cleaned[i] = strings.TrimSpace(step)
		if cleaned[i] == "" {
			return nil, invalidInput("step %d is empty", i+1)
		}
	}

	now := r.now()
	guide := &schema.HowTo{
		TaskID:    taskID,
		Title:     strings.TrimSpace(title),
		Steps:     cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.write(ctx, func(tx *db.Tx) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := tx.UpsertGuide(ctx, guide); err != nil {
			return err
		}
		stored, err := tx.GetGuide(ctx, taskID)
		if err != nil {
			return err
		}
		guide = stored
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set how-to: %w", err)
	}
	return guide, nil
}

// RemoveHowTo detaches the guide from a task and reports whether there was
// one. It succeeds whether or not the task exists.
func (r *Repository) RemoveHowTo(ctx context.Context, taskID int64) (bool, error) {
	removed := false
	err := r.write(ctx, func(tx *db.Tx) error {
		var err error
		removed, err = tx.DeleteGuide(ctx, taskID)
		return err
	})
	return removed, err
}

// ImportDone reports whether any legacy file was ever imported into this
// store.
func (r *Repository) ImportDone(ctx context.Context) (bool, error) {
	done := false
	err := r.read(ctx, func(tx *db.Tx) error {
		var err error
		done, err = tx.HasImports(ctx)
		return err
	})
	return done, err
}

// ImportRecorded reports whether a legacy file with this digest has been
// imported already.
func (r *Repository) ImportRecorded(ctx context.Context, digest string) (bool, error) {
	found := false
	err := r.read(ctx, func(tx *db.Tx) error {
		_, err := tx.GetImport(ctx, digest)
		if errors.Is(err, db.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// RecordImport stores the sentinel for an imported legacy file.
func (r *Repository) RecordImport(ctx context.Context, digest, source string, imported, skipped int) error {
	return r.write(ctx, func(tx *db.Tx) error {
		return tx.RecordImport(ctx, &db.LegacyImport{
			Digest:       digest,
			Source:       source,
			TaskCount:    imported,
			SkippedCount: skipped,
			ImportedAt:   r.now(),
		})
	})
}

func requireTask(ctx context.Context, tx *db.Tx, id int64) error {
	exists, err := tx.TaskExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("task", id)
	}
	return nil
}

// loadTask reads the full aggregate of a task.
func loadTask(ctx context.Context, tx *db.Tx, id int64) (*schema.Task, error) {
	task, err := tx.GetTask(ctx, id)
	if errors.Is(err, db.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, err
	}

	if task.Subtasks, err = tx.ListSubtasks(ctx, id); err != nil {
		return nil, err
	}

	guide, err := tx.GetGuide(ctx, id)
	switch {
	case errors.Is(err, db.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		task.HowTo = guide
	}
	return task, nil
}
