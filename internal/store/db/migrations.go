package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migration is one numbered schema change from migrations/NNNN_name.sql.
type migration struct {
	Version int
	Name    string
	SQL     string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: invalid version: %w", name, err)
		}

		body, err := fs.ReadFile(migrationFS, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		migrations = append(migrations, migration{
			Version: version,
			Name:    strings.TrimSuffix(name, ".sql"),
			SQL:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// LatestSchemaVersion is the version InitSchema migrates to.
func LatestSchemaVersion() int {
	migrations, err := loadMigrations()
	if err != nil || len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// InitSchema creates or upgrades the database schema.
//
// Pending migrations are applied in one write transaction and recorded in
// schema_migrations. This is idempotent - safe to call multiple times. A
// file locked by another writer past the busy timeout is reported as
// ErrUnavailable.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates or upgrades the schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	err = db.RunInTx(ctx, func(tx *Tx) error {
		if _, err := tx.exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
			return fmt.Errorf("failed to create schema_migrations: %w", err)
		}

		current, err := tx.schemaVersion(ctx)
		if err != nil {
			return err
		}

		for _, m := range migrations {
			if m.Version <= current {
				continue
			}
			if _, err := tx.exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
			}
			if _, err := tx.exec(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Name, formatTime(time.Now()),
			); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return fmt.Errorf("%w: failed to initialize schema: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a fresh file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.RunReadTx(ctx, func(tx *Tx) error {
		var exists int
		if err := tx.queryRow(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
		).Scan(&exists); err != nil {
			return classify(err)
		}
		if exists == 0 {
			return nil
		}
		v, err := tx.schemaVersion(ctx)
		version = v
		return err
	})
	return version, err
}

func (t *Tx) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := t.queryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", classify(err))
	}
	return version, nil
}
