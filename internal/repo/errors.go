package repo

import (
	"errors"
	"fmt"

	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// Error kinds returned by the Repository. Every error from a Repository
// method matches exactly one of these with errors.Is; the underlying cause
// stays in the chain.
var (
	// ErrInvalidInput means caller-supplied data failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced task, subtask or guide does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the status change leaves a terminal status
	// other than by reopening.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConstraintViolation means the storage engine rejected a write on
	// referential integrity. Repository checks run first, so seeing this
	// points at a repository bug.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStorageUnavailable means the database file could not be opened or
	// written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageBusy means another writer held the lock past the busy timeout.
	ErrStorageBusy = errors.New("storage busy")
)

// kinds is the taxonomy in match order.
var kinds = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrInvalidTransition,
	ErrConstraintViolation,
	ErrStorageUnavailable,
	ErrStorageBusy,
}

// IsRetryable returns true if the operation may succeed when repeated
// unchanged after a backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageBusy) || errors.Is(err, ErrStorageUnavailable)
}

// Kind returns the taxonomy sentinel err matches, or nil.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// translate maps storage and schema errors onto the repository taxonomy.
// Errors that already carry a repository kind pass through unchanged.
func translate(err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}

	switch {
	case errors.Is(err, db.ErrBusy):
		return fmt.Errorf("%w: %w", ErrStorageBusy, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	case errors.Is(err, db.ErrConstraint):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	case errors.Is(err, db.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, schema.ErrTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, schema.ErrUnknownStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}
