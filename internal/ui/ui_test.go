package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

func init() {
	DisableColor()
}

func TestRenderTask(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	task := &schema.Task{
		ID:        3,
		Title:     "Write report",
		Status:    schema.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
		Subtasks: []*schema.Subtask{
			{ID: 1, TaskID: 3, Title: "Draft outline", Status: schema.StatusDone},
			{ID: 2, TaskID: 3, Title: "Proofread", Status: schema.StatusOpen},
		},
		HowTo: &schema.HowTo{TaskID: 3, Steps: []string{"Open editor", "Type outline"}},
	}

	out := RenderTask(task)
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "Subtasks (1/2 done)")
	assert.Contains(t, out, "1. Open editor")
	assert.Contains(t, out, "2. Type outline")
}

func TestRenderTaskList(t *testing.T) {
	assert.Equal(t, "No tasks.\n", RenderTaskList(nil))

	past := time.Now().Add(-48 * time.Hour)
	out := RenderTaskList([]*schema.TaskSummary{
		{ID: 1, Title: "late", Status: schema.StatusOpen, Deadline: &past, SubtaskCount: 2},
		{ID: 2, Title: "finished", Status: schema.StatusDone, Deadline: &past, HasHowTo: true},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2 subtasks")
	assert.Contains(t, lines[0], "overdue")
	assert.Contains(t, lines[1], "how-to")
	assert.NotContains(t, lines[1], "overdue")
}
