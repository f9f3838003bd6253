package schema

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds task and subtask titles.
const MaxTitleLength = 500

// Task is a top-level unit of work.
//
// Subtasks and HowTo are only populated on aggregate reads; a freshly
// created task has neither.
type Task struct {
	ID          int64      `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Deadline    *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`

	Subtasks []*Subtask `json:"subtasks" yaml:"subtasks"`
	HowTo    *HowTo     `json:"how_to,omitempty" yaml:"how_to,omitempty"`
}

// Subtask is a child unit of work owned by exactly one task.
type Subtask struct {
	ID        int64     `json:"id" yaml:"id"`
	TaskID    int64     `json:"task_id" yaml:"task_id"`
	Title     string    `json:"title" yaml:"title"`
	Status    Status    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// HowTo is the ordered guide attached to a task. TaskID is also its key.
type HowTo struct {
	TaskID    int64     `json:"task_id" yaml:"task_id"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Steps     []string  `json:"steps" yaml:"steps"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TaskSummary is the list view of a task.
type TaskSummary struct {
	ID           int64      `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Status       Status     `json:"status" yaml:"status"`
	Deadline     *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"updated_at"`
	SubtaskCount int        `json:"subtask_count" yaml:"subtask_count"`
	HasHowTo     bool       `json:"has_how_to" yaml:"has_how_to"`
}

// CleanTitle trims title and checks it is non-blank and within MaxTitleLength.
func CleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return "", fmt.Errorf("title must be %d characters or less (got %d)", MaxTitleLength, n)
	}
	return title, nil
}

// Validate checks if the Task has valid field values for storage.
func (t *Task) Validate() error {
	if _, err := CleanTitle(t.Title); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, t.Status)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if t.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// Validate checks if the Subtask has valid field values for storage.
func (s *Subtask) Validate() error {
	if s.TaskID <= 0 {
		return fmt.Errorf("task_id is required")
	}
	if _, err := CleanTitle(s.Title); err != nil {
		return err
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, s.Status)
	}
	return nil
}

// Validate checks that the guide has at least one non-blank step.
func (h *HowTo) Validate() error {
	if h.TaskID <= 0 {
		return fmt.Errorf("task_id is required")
	}
	if len(h.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range h.Steps {
		if strings.TrimSpace(step) == "" {
			return fmt.Errorf("step %d is empty", i+1)
		}
	}
	return nil
}

// Summary returns the list view of t.
func (t *Task) Summary() *TaskSummary {
	return &TaskSummary{
		ID:           t.ID,
		Title:        t.Title,
		Status:       t.Status,
		Deadline:     t.Deadline,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		SubtaskCount: len(t.Subtasks),
		HasHowTo:     t.HowTo != nil,
	}
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults(now time.Time) {
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Subtasks == nil {
		t.Subtasks = []*Subtask{}
	}
}
