package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by tasks and subtasks.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusDone, StatusCancelled}

var (
	// ErrUnknownStatus is returned by ParseStatus for strings outside the enum.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrTransition is returned by CheckTransition for moves the lifecycle forbids.
	ErrTransition = errors.New("status transition not allowed")
)

// transitions lists the targets reachable from each status, excluding the
// status itself (a same-status update is always an accepted no-op).
var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusDone, StatusCancelled},
	StatusInProgress: {StatusOpen, StatusDone, StatusCancelled},
	StatusDone:       {StatusOpen},
	StatusCancelled:  {StatusOpen},
}

// ParseStatus converts s into a Status. Matching ignores case and
// surrounding whitespace, and accepts "in-progress" for in_progress.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, st := range Statuses {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of open, in_progress, done, cancelled)", ErrUnknownStatus, s)
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s is done or cancelled.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// CheckTransition validates a move from one status to another.
// It returns changed=false for a same-status update, which callers must
// treat as a no-op (in particular, UpdatedAt is left alone).
func CheckTransition(from, to Status) (changed bool, err error) {
	if !from.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from == to {
		return false, nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true, nil
		}
	}
	if from.Terminal() {
		return false, fmt.Errorf("%w: %s is terminal, only a reopen to %s is allowed", ErrTransition, from, StatusOpen)
	}
	return false, fmt.Errorf("%w: %s -> %s", ErrTransition, from, to)
}
