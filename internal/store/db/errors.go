package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"
)

// Low-level storage failures. Every error returned by this package that
// originates in SQLite is classified into one of these, with the driver
// error kept in the chain:
//
//	if errors.Is(err, db.ErrBusy) {
//	    // another writer held the lock past the busy timeout
//	}
var (
	// ErrUnavailable is returned when the database file cannot be opened,
	// written, or is not a SQLite database.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrBusy is returned when a lock could not be acquired within the
	// busy timeout.
	ErrBusy = errors.New("storage busy")

	// ErrConstraint is returned when a write violates a schema constraint
	// (foreign key, check, uniqueness).
	ErrConstraint = errors.New("constraint violation")

	// ErrNoRows is returned when a lookup by key matches nothing.
	ErrNoRows = errors.New("no rows")
)

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrConstraint) || errors.Is(err, ErrNoRows) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNoRows, err)
	case errors.Is(err, sqlite3.BUSY), errors.Is(err, sqlite3.LOCKED):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	case errors.Is(err, sqlite3.CONSTRAINT):
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	case errors.Is(err, sqlite3.CANTOPEN),
		errors.Is(err, sqlite3.READONLY),
		errors.Is(err, sqlite3.PERM),
		errors.Is(err, sqlite3.NOTADB),
		errors.Is(err, sqlite3.CORRUPT),
		errors.Is(err, sqlite3.IOERR),
		errors.Is(err, sqlite3.FULL):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
