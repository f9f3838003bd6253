// Package db is the storage engine for tasktree.
//
// Tasks, subtasks and how-to guides live in a single embedded SQLite file,
// opened through the ncruces/go-sqlite3 driver (pure Go, no cgo).
//
// Architecture:
//   - Database file: .tasktree/tasks.db by default
//   - WAL mode: concurrent readers during writes
//   - Writers: BEGIN IMMEDIATE, serialized by SQLite with a bounded busy timeout
//   - Schema: versioned migrations recorded in schema_migrations
//   - Referential integrity: foreign keys with ON DELETE CASCADE
//
// All reads and writes go through a Tx obtained from RunInTx or RunReadTx,
// so every multi-row mutation is atomic and every aggregate read sees one
// snapshot.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Options tunes how the database file is opened.
type Options struct {
	// BusyTimeout is how long a statement waits for a lock held by another
	// writer before failing with ErrBusy.
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool (0 = driver default).
	MaxOpenConns int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// DB wraps the SQLite connection pool.
type DB struct {
	conn *sql.DB
	path string
	opts Options
}

// Open creates a new database connection at the specified path with
// default options. See OpenWithOptions.
func Open(path string) (*DB, error) {
	return OpenWithOptions(path, DefaultOptions())
}

// OpenWithOptions opens or creates the database file at path.
//
// The parent directory is created if needed. Any failure to reach a usable
// file is reported as ErrUnavailable. The schema is not touched; call
// InitSchema (or use Initialize) before issuing queries.
//
// The caller MUST call Close() when done.
func OpenWithOptions(path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrUnavailable)
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultOptions().BusyTimeout
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", ErrUnavailable, err)
	}

	conn, err := sql.Open("sqlite3", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrUnavailable, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrUnavailable, err)
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
		conn.SetMaxIdleConns(opts.MaxOpenConns)
	}
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &DB{conn: conn, path: path, opts: opts}, nil
}

// Initialize opens the database at path and brings its schema up to date.
// Calling it against an already initialized file only checks the recorded
// schema version.
func Initialize(ctx context.Context, path string, opts Options) (*DB, error) {
	database, err := OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchemaContext(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// dsn builds the driver connection string. Pragmas are passed per
// connection so that every pooled connection enforces foreign keys and
// the busy timeout, not just the first one.
func dsn(path string, opts Options) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_txlock=immediate",
		path, opts.BusyTimeout.Milliseconds(),
	)
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are in the main file.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// RunInTx executes fn inside a write transaction.
//
// The transaction starts with BEGIN IMMEDIATE, so it takes the write lock
// up front and waits at most BusyTimeout for it. If fn returns an error (or
// panics) everything it wrote is rolled back; otherwise it is committed.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *Tx) error) error {
	return db.runTx(ctx, nil, fn)
}

// RunReadTx executes fn inside a read-only snapshot transaction.
func (db *DB) RunReadTx(ctx context.Context, fn func(tx *Tx) error) error {
	return db.runTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (db *DB) runTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *Tx) error) error {
	if db.conn == nil {
		return fmt.Errorf("%w: database is closed", ErrUnavailable)
	}

	sqlTx, err := db.conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	committed = true
	return nil
}

// Tx is a unit of work against the store. It is only valid inside the
// callback passed to RunInTx or RunReadTx.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	return res, classify(err)
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	return rows, classify(err)
}

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// timeLayout is fixed width so that stored timestamps sort lexically in
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// timeToNullString converts a time pointer to a nullable string for SQL.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil
	}
	return &t
}
