package repo

import (
	"context"
	"time"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// TaskOption customizes CreateTask.
type TaskOption func(*schema.Task)

// WithDeadline sets the task deadline.
func WithDeadline(deadline time.Time) TaskOption {
	return func(t *schema.Task) {
		d := deadline.UTC()
		t.Deadline = &d
	}
}

// WithCreatedAt backdates the task. Used when importing records that carry
// their own creation time, so list order follows the original order.
func WithCreatedAt(created time.Time) TaskOption {
	return func(t *schema.Task) {
		if created.IsZero() {
			return
		}
		t.CreatedAt = created.UTC()
		t.UpdatedAt = t.CreatedAt
	}
}

// WithStatus sets the initial status. Only the importer needs this; new
// tasks created by callers always start open.
func WithStatus(status schema.Status) TaskOption {
	return func(t *schema.Task) {
		t.Status = status
	}
}

// ListFilter narrows ListTasks.
type ListFilter struct {
	// Status limits results to one status (nil = all)
	Status *schema.Status
	// Limit caps the number of results (0 = no limit)
	Limit int
}

// TaskPatch is a partial update for UpdateTask.
// nil pointer => "no change"
type TaskPatch struct {
	Title       *string
	Description *string
	// Deadline replaces the deadline; ClearDeadline removes it.
	Deadline      *time.Time
	ClearDeadline bool
}

func (p TaskPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && !p.ClearDeadline
}

// deleteHook runs inside the DeleteTask transaction after the guide and
// subtasks are removed and before the task row is. Returning an error
// aborts the whole cascade.
type deleteHook func(ctx context.Context, taskID int64) error
