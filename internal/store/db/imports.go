package db

import (
	"context"
	"fmt"
	"time"
)

// LegacyImport is the sentinel row written when a legacy task file has
// been imported. Digest is the SHA-256 of the file contents.
type LegacyImport struct {
	Digest       string
	Source       string
	TaskCount    int
	SkippedCount int
	ImportedAt   time.Time
}

// RecordImport writes the sentinel for a completed import.
// Recording the same digest twice fails with ErrConstraint.
func (t *Tx) RecordImport(ctx context.Context, imp *LegacyImport) error {
	if imp.Digest == "" {
		return fmt.Errorf("import digest is required")
	}
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now()
	}

	_, err := t.exec(ctx, `
	INSERT INTO legacy_imports (digest, source, task_count, skipped_count, imported_at)
	VALUES (?, ?, ?, ?, ?)`,
		imp.Digest, imp.Source, imp.TaskCount, imp.SkippedCount, formatTime(imp.ImportedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record import of %s: %w", imp.Source, err)
	}
	return nil
}

// GetImport looks up the sentinel for digest. Returns ErrNoRows if the file
// was never imported.
func (t *Tx) GetImport(ctx context.Context, digest string) (*LegacyImport, error) {
	imp := LegacyImport{Digest: digest}
	var importedAt string

	err := t.queryRow(ctx,
		`SELECT source, task_count, skipped_count, imported_at FROM legacy_imports WHERE digest = ?`, digest,
	).Scan(&imp.Source, &imp.TaskCount, &imp.SkippedCount, &importedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get import %s: %w", digest, classify(err))
	}
	if imp.ImportedAt, err = parseTime(importedAt); err != nil {
		return nil, err
	}
	return &imp, nil
}

// HasImports reports whether any legacy file was ever imported into this
// store.
func (t *Tx) HasImports(ctx context.Context) (bool, error) {
	var n int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM legacy_imports`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count imports: %w", classify(err))
	}
	return n > 0, nil
}
