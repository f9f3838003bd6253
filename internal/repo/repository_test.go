package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschirtzinger/tasktree/internal/logging"
	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	current := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func openTestDB(t *testing.T, path string, opts db.Options) *db.DB {
	t.Helper()
	database, err := db.Initialize(context.Background(), path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	database := openTestDB(t, filepath.Join(t.TempDir(), "tasks.db"), db.DefaultOptions())
	r := New(database, logging.Discard())
	r.now = tickingClock()
	return r
}

func TestCreateTask_GetTask(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	created, err := r.CreateTask(ctx, "  Write report ", "quarterly numbers")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, schema.StatusOpen, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := r.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.Equal(t, schema.StatusOpen, got.Status)
	assert.Empty(t, got.Subtasks)
	assert.Nil(t, got.HowTo)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestCreateTask_BlankTitle(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := r.CreateTask(ctx, title, "")
		assert.ErrorIs(t, err, ErrInvalidInput, "title %q", title)
	}

	n, err := r.CountTasks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "no record should be persisted")
}

func TestCreateTask_Options(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	deadline := time.Date(2024, 4, 1, 17, 0, 0, 0, time.UTC)
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	task, err := r.CreateTask(ctx, "old", "", WithDeadline(deadline), WithCreatedAt(created), WithStatus(schema.StatusDone))
	require.NoError(t, err)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Deadline)
	assert.True(t, got.Deadline.Equal(deadline))
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, schema.StatusDone, got.Status)

	_, err = r.CreateTask(ctx, "bad", "", WithStatus("closed"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetTask_NotFound(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.GetTask(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsRetryable(err))
}

// TestScenario_ReportWithSubtasksAndGuide walks the full aggregate lifecycle
func TestScenario_ReportWithSubtasksAndGuide(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "Write report", "")
	require.NoError(t, err)

	_, err = r.AddSubtask(ctx, task.ID, "Draft outline")
	require.NoError(t, err)
	_, err = r.AddSubtask(ctx, task.ID, "Proofread")
	require.NoError(t, err)

	_, err = r.SetHowTo(ctx, task.ID, "", []string{"Open editor", "Type outline"})
	require.NoError(t, err)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)

	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, "Draft outline", got.Subtasks[0].Title)
	assert.Equal(t, "Proofread", got.Subtasks[1].Title)
	for _, sub := range got.Subtasks {
		assert.Equal(t, task.ID, sub.TaskID)
		assert.Equal(t, schema.StatusOpen, sub.Status)
	}

	require.NotNil(t, got.HowTo)
	assert.Equal(t, []string{"Open editor", "Type outline"}, got.HowTo.Steps)

	list, err := r.ListTasks(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].SubtaskCount)
	assert.True(t, list[0].HasHowTo)
}

func TestDeleteTask_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "doomed", "")
	require.NoError(t, err)
	var subs []*schema.Subtask
	for _, title := range []string{"a", "b", "c"} {
		sub, err := r.AddSubtask(ctx, task.ID, title)
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	_, err = r.SetHowTo(ctx, task.ID, "guide", []string{"step"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteTask(ctx, task.ID))

	_, err = r.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, sub := range subs {
		_, err := r.UpdateSubtaskStatus(ctx, sub.ID, schema.StatusDone)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, r.RemoveSubtask(ctx, sub.ID), ErrNotFound)
	}

	_, err = r.SetHowTo(ctx, task.ID, "", []string{"again"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask_NotFound(t *testing.T) {
	r := newTestRepo(t)

	err := r.DeleteTask(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDeleteTask_AllOrNothing aborts the cascade after the children are gone
// and checks that the transaction restored them.
func TestDeleteTask_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "survivor", "")
	require.NoError(t, err)
	_, err = r.AddSubtask(ctx, task.ID, "one")
	require.NoError(t, err)
	_, err = r.AddSubtask(ctx, task.ID, "two")
	require.NoError(t, err)
	_, err = r.SetHowTo(ctx, task.ID, "", []string{"keep me"})
	require.NoError(t, err)

	injected := errors.New("simulated crash")
	r.beforeTaskDelete = func(ctx context.Context, id int64) error {
		assert.Equal(t, task.ID, id)
		return injected
	}

	err = r.DeleteTask(ctx, task.ID)
	require.ErrorIs(t, err, injected)

	r.beforeTaskDelete = nil
	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, got.Subtasks, 2)
	require.NotNil(t, got.HowTo)
	assert.Equal(t, []string{"keep me"}, got.HowTo.Steps)
}

func TestUpdateTaskStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "lifecycle", "")
	require.NoError(t, err)

	got, err := r.UpdateTaskStatus(ctx, task.ID, schema.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))

	done, err := r.UpdateTaskStatus(ctx, task.ID, schema.StatusDone)
	require.NoError(t, err)

	_, err = r.UpdateTaskStatus(ctx, task.ID, schema.StatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = r.UpdateTaskStatus(ctx, task.ID, schema.StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusDone, stored.Status)
	assert.True(t, stored.UpdatedAt.Equal(done.UpdatedAt))

	reopened, err := r.UpdateTaskStatus(ctx, task.ID, schema.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusOpen, reopened.Status)
}

func TestUpdateTaskStatus_TerminalNoOp(t *testing.T) {
	ctx := context.Background()

	for _, status := range []schema.Status{schema.StatusDone, schema.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			r := newTestRepo(t)
			task, err := r.CreateTask(ctx, "finish me", "")
			require.NoError(t, err)

			first, err := r.UpdateTaskStatus(ctx, task.ID, status)
			require.NoError(t, err)

			again, err := r.UpdateTaskStatus(ctx, task.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, again.Status)
			assert.True(t, again.UpdatedAt.Equal(first.UpdatedAt), "no-op must not bump updated")

			stored, err := r.GetTask(ctx, task.ID)
			require.NoError(t, err)
			assert.True(t, stored.UpdatedAt.Equal(first.UpdatedAt))
		})
	}
}

func TestUpdateTaskStatus_Errors(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.UpdateTaskStatus(ctx, 7, schema.StatusDone)
	assert.ErrorIs(t, err, ErrNotFound)

	task, err := r.CreateTask(ctx, "x", "")
	require.NoError(t, err)
	_, err = r.UpdateTaskStatus(ctx, task.ID, schema.Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateTask_Patch(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "draft", "old")
	require.NoError(t, err)

	title := "final"
	desc := ""
	deadline := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	got, err := r.UpdateTask(ctx, task.ID, TaskPatch{Title: &title, Description: &desc, Deadline: &deadline})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Empty(t, got.Description)
	require.NotNil(t, got.Deadline)
	assert.True(t, got.Deadline.Equal(deadline))
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))

	cleared, err := r.UpdateTask(ctx, task.ID, TaskPatch{ClearDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Deadline)

	unchanged, err := r.UpdateTask(ctx, task.ID, TaskPatch{})
	require.NoError(t, err)
	assert.True(t, unchanged.UpdatedAt.Equal(cleared.UpdatedAt))

	blank := "  "
	_, err = r.UpdateTask(ctx, task.ID, TaskPatch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.UpdateTask(ctx, 404, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasks_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	var ids []int64
	for _, title := range []string{"first", "second", "third"} {
		task, err := r.CreateTask(ctx, title, "")
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	_, err := r.UpdateTaskStatus(ctx, ids[1], schema.StatusDone)
	require.NoError(t, err)

	all, err := r.ListTasks(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, s := range all {
		assert.Equal(t, ids[i], s.ID)
	}

	done := schema.StatusDone
	filtered, err := r.ListTasks(ctx, ListFilter{Status: &done})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "second", filtered[0].Title)

	limited, err := r.ListTasks(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bogus := schema.Status("later")
	_, err = r.ListTasks(ctx, ListFilter{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddSubtask_Errors(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	_, err := r.AddSubtask(ctx, 55, "orphan")
	assert.ErrorIs(t, err, ErrNotFound, "missing parent must be caught before the foreign key")
	assert.NotErrorIs(t, err, ErrConstraintViolation)

	task, err := r.CreateTask(ctx, "parent", "")
	require.NoError(t, err)
	_, err = r.AddSubtask(ctx, task.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestUpdateSubtaskStatus_NoRollup checks subtask status is independent of the parent
func TestUpdateSubtaskStatus_NoRollup(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "parent", "")
	require.NoError(t, err)
	a, err := r.AddSubtask(ctx, task.ID, "a")
	require.NoError(t, err)
	b, err := r.AddSubtask(ctx, task.ID, "b")
	require.NoError(t, err)

	for _, sub := range []*schema.Subtask{a, b} {
		got, err := r.UpdateSubtaskStatus(ctx, sub.ID, schema.StatusDone)
		require.NoError(t, err)
		assert.Equal(t, schema.StatusDone, got.Status)
	}

	parent, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusOpen, parent.Status)

	_, err = r.UpdateSubtaskStatus(ctx, a.ID, schema.StatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	again, err := r.UpdateSubtaskStatus(ctx, b.ID, schema.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusDone, again.Status)
}

func TestRemoveSubtask(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "parent", "")
	require.NoError(t, err)
	keep, err := r.AddSubtask(ctx, task.ID, "keep")
	require.NoError(t, err)
	drop, err := r.AddSubtask(ctx, task.ID, "drop")
	require.NoError(t, err)

	require.NoError(t, r.RemoveSubtask(ctx, drop.ID))
	assert.ErrorIs(t, r.RemoveSubtask(ctx, drop.ID), ErrNotFound)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, keep.ID, got.Subtasks[0].ID)
}

func TestSetHowTo_Replaces(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "guided", "")
	require.NoError(t, err)

	_, err = r.SetHowTo(ctx, task.ID, "first", []string{"a", "b", "c"})
	require.NoError(t, err)
	second, err := r.SetHowTo(ctx, task.ID, "second", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, second.Steps)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HowTo)
	assert.Equal(t, "second", got.HowTo.Title)
	assert.Equal(t, []string{"x", "y"}, got.HowTo.Steps)
}

func TestSetHowTo_InvalidSteps(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "guided", "")
	require.NoError(t, err)

	_, err = r.SetHowTo(ctx, task.ID, "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.SetHowTo(ctx, task.ID, "", []string{"ok", "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.HowTo)
}

func TestRemoveHowTo_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "guided", "")
	require.NoError(t, err)
	_, err = r.SetHowTo(ctx, task.ID, "", []string{"one"})
	require.NoError(t, err)

	removed, err := r.RemoveHowTo(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.RemoveHowTo(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = r.RemoveHowTo(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.HowTo)
}

func TestBatch_RollsBack(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	failure := errors.New("stop")
	err := r.Batch(ctx, func(b *Repository) error {
		task, err := b.CreateTask(ctx, "inside", "")
		if err != nil {
			return err
		}
		if _, err := b.AddSubtask(ctx, task.ID, "child"); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	n, err := r.CountTasks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = r.Batch(ctx, func(b *Repository) error {
		_, err := b.CreateTask(ctx, "committed", "")
		return err
	})
	require.NoError(t, err)

	n, err = r.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportSentinel(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	found, err := r.ImportRecorded(ctx, "deadbeef")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.RecordImport(ctx, "deadbeef", "tasks.json", 3, 1))

	found, err = r.ImportRecorded(ctx, "deadbeef")
	require.NoError(t, err)
	assert.True(t, found)

	err = r.RecordImport(ctx, "deadbeef", "tasks.json", 3, 1)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestImportDone(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	done, err := r.ImportDone(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, r.RecordImport(ctx, "cafe", "tasks.json", 1, 0))

	done, err = r.ImportDone(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestToggleTask(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	task, err := r.CreateTask(ctx, "release", "")
	require.NoError(t, err)
	open, err := r.AddSubtask(ctx, task.ID, "tag")
	require.NoError(t, err)
	cancelled, err := r.AddSubtask(ctx, task.ID, "blog post")
	require.NoError(t, err)
	_, err = r.UpdateSubtaskStatus(ctx, cancelled.ID, schema.StatusCancelled)
	require.NoError(t, err)

	done, err := r.ToggleTask(ctx, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusDone, done.Status)
	assert.True(t, done.UpdatedAt.After(task.UpdatedAt))

	got, err := r.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, open.ID, got.Subtasks[0].ID)
	assert.Equal(t, schema.StatusDone, got.Subtasks[0].Status)
	assert.Equal(t, schema.StatusCancelled, got.Subtasks[1].Status, "cancelled subtasks are not completed")

	reopened, err := r.ToggleTask(ctx, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusOpen, reopened.Status)
	for _, sub := range reopened.Subtasks {
		assert.Equal(t, schema.StatusOpen, sub.Status)
	}

	flat, err := r.ToggleTask(ctx, task.ID, false)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusDone, flat.Status)
	for _, sub := range flat.Subtasks {
		assert.Equal(t, schema.StatusOpen, sub.Status)
	}

	_, err = r.ToggleTask(ctx, 9999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveSubtask(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	from, err := r.CreateTask(ctx, "from", "")
	require.NoError(t, err)
	to, err := r.CreateTask(ctx, "to", "")
	require.NoError(t, err)
	sub, err := r.AddSubtask(ctx, from.ID, "step")
	require.NoError(t, err)

	moved, err := r.MoveSubtask(ctx, sub.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.TaskID)
	assert.True(t, moved.UpdatedAt.After(sub.UpdatedAt))

	src, err := r.GetTask(ctx, from.ID)
	require.NoError(t, err)
	assert.Empty(t, src.Subtasks)
	dst, err := r.GetTask(ctx, to.ID)
	require.NoError(t, err)
	require.Len(t, dst.Subtasks, 1)
	assert.Equal(t, sub.ID, dst.Subtasks[0].ID)

	same, err := r.MoveSubtask(ctx, sub.ID, to.ID)
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(moved.UpdatedAt))

	_, err = r.MoveSubtask(ctx, 9999, to.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.MoveSubtask(ctx, sub.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStorageBusy holds the write lock from one handle while a repository on
// a second handle tries to write.
func TestStorageBusy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	holder := openTestDB(t, path, db.DefaultOptions())
	contender := openTestDB(t, path, db.Options{BusyTimeout: 50 * time.Millisecond, MaxOpenConns: 1})
	r := New(contender, logging.Discard())

	var busyErr error
	err := holder.RunInTx(ctx, func(tx *db.Tx) error {
		_, busyErr = r.CreateTask(ctx, "blocked", "")
		return nil
	})
	require.NoError(t, err)

	require.ErrorIs(t, busyErr, ErrStorageBusy)
	assert.True(t, IsRetryable(busyErr))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{db.ErrBusy, ErrStorageBusy},
		{db.ErrUnavailable, ErrStorageUnavailable},
		{db.ErrConstraint, ErrConstraintViolation},
		{db.ErrNoRows, ErrNotFound},
		{schema.ErrTransition, ErrInvalidTransition},
		{schema.ErrUnknownStatus, ErrInvalidInput},
	}
	for _, tt := range tests {
		got := translate(tt.in)
		assert.ErrorIs(t, got, tt.want)
		assert.ErrorIs(t, got, tt.in, "cause must stay in the chain")
		assert.Equal(t, tt.want, Kind(got))
	}

	assert.Nil(t, translate(nil))
	assert.Nil(t, Kind(errors.New("plain")))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	a, err := r.CreateTask(ctx, "a", "")
	require.NoError(t, err)
	_, err = r.CreateTask(ctx, "b", "")
	require.NoError(t, err)
	_, err = r.AddSubtask(ctx, a.ID, "child")
	require.NoError(t, err)
	_, err = r.UpdateTaskStatus(ctx, a.ID, schema.StatusDone)
	require.NoError(t, err)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Tasks)
	assert.Equal(t, 1, stats.Subtasks)
	assert.Equal(t, map[schema.Status]int{schema.StatusOpen: 1, schema.StatusDone: 1}, stats.ByStatus)
}
