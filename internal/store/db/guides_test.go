package db

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

func TestUpsertGuide_Replaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	task := insertTask(t, db, "guided")

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := &schema.HowTo{TaskID: task.ID, Title: "v1", Steps: []string{"a", "b", "c"}, CreatedAt: created, UpdatedAt: created}
	second := &schema.HowTo{TaskID: task.ID, Title: "v2", Steps: []string{"Open editor", "Type outline"},
		CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(time.Hour)}

	for _, g := range []*schema.HowTo{first, second} {
		if err := db.RunInTx(ctx, func(tx *Tx) error { return tx.UpsertGuide(ctx, g) }); err != nil {
			t.Fatalf("UpsertGuide() failed: %v", err)
		}
	}

	var got *schema.HowTo
	err := db.RunReadTx(ctx, func(tx *Tx) error {
		var err error
		got, err = tx.GetGuide(ctx, task.ID)
		return err
	})
	if err != nil {
		t.Fatalf("GetGuide() failed: %v", err)
	}

	if got.Title != "v2" {
		t.Errorf("Title = %q, want v2", got.Title)
	}
	if !reflect.DeepEqual(got.Steps, second.Steps) {
		t.Errorf("Steps = %v, want %v", got.Steps, second.Steps)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want first insert time %v", got.CreatedAt, created)
	}

	var guides int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM guides WHERE task_id = ?`, task.ID).Scan(&guides); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if guides != 1 {
		t.Errorf("guides rows = %d, want 1", guides)
	}
}

func TestUpsertGuide_MissingTask(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	now := time.Now()
	err := db.RunInTx(ctx, func(tx *Tx) error {
		return tx.UpsertGuide(ctx, &schema.HowTo{TaskID: 31337, Steps: []string{"x"}, CreatedAt: now, UpdatedAt: now})
	})
	if !errors.Is(err, ErrConstraint) {
		t.Fatalf("UpsertGuide() error = %v, want ErrConstraint", err)
	}
}

func TestDeleteGuide(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	task := insertTask(t, db, "guided")

	now := time.Now()
	err := db.RunInTx(ctx, func(tx *Tx) error {
		return tx.UpsertGuide(ctx, &schema.HowTo{TaskID: task.ID, Steps: []string{"x"}, CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		t.Fatalf("UpsertGuide() failed: %v", err)
	}

	for i, want := range []bool{true, false} {
		var deleted bool
		err := db.RunInTx(ctx, func(tx *Tx) error {
			var err error
			deleted, err = tx.DeleteGuide(ctx, task.ID)
			return err
		})
		if err != nil {
			t.Fatalf("DeleteGuide() #%d failed: %v", i+1, err)
		}
		if deleted != want {
			t.Errorf("DeleteGuide() #%d = %v, want %v", i+1, deleted, want)
		}
	}

	err = db.RunReadTx(ctx, func(tx *Tx) error {
		_, err := tx.GetGuide(ctx, task.ID)
		return err
	})
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("GetGuide() after delete error = %v, want ErrNoRows", err)
	}
}

func TestRecordImport(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	imp := &LegacyImport{Digest: "abc123", Source: "tasks.json", TaskCount: 4, SkippedCount: 1}
	if err := db.RunInTx(ctx, func(tx *Tx) error { return tx.RecordImport(ctx, imp) }); err != nil {
		t.Fatalf("RecordImport() failed: %v", err)
	}

	err := db.RunReadTx(ctx, func(tx *Tx) error {
		got, err := tx.GetImport(ctx, "abc123")
		if err != nil {
			return err
		}
		if got.TaskCount != 4 || got.SkippedCount != 1 || got.Source != "tasks.json" {
			t.Errorf("GetImport() = %+v", got)
		}
		_, err = tx.GetImport(ctx, "other")
		if !errors.Is(err, ErrNoRows) {
			t.Errorf("GetImport(unknown) error = %v, want ErrNoRows", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GetImport() failed: %v", err)
	}

	err = db.RunInTx(ctx, func(tx *Tx) error { return tx.RecordImport(ctx, &LegacyImport{Digest: "abc123", Source: "again"}) })
	if !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate RecordImport() error = %v, want ErrConstraint", err)
	}
}

func TestHasImports(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	check := func(want bool) {
		t.Helper()
		err := db.RunReadTx(ctx, func(tx *Tx) error {
			got, err := tx.HasImports(ctx)
			if err != nil {
				return err
			}
			if got != want {
				t.Errorf("HasImports() = %v, want %v", got, want)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("HasImports() failed: %v", err)
		}
	}

	check(false)
	if err := db.RunInTx(ctx, func(tx *Tx) error {
		return tx.RecordImport(ctx, &LegacyImport{Digest: "d1", Source: "tasks.json"})
	}); err != nil {
		t.Fatalf("RecordImport() failed: %v", err)
	}
	check(true)
}
