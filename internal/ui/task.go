package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

const dateLayout = "2006-01-02 15:04"

// RenderTask renders the full aggregate of a task.
func RenderTask(task *schema.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", StatusIcon(task.Status), RenderAccent(fmt.Sprintf("#%d", task.ID)), RenderBold(task.Title))
	fmt.Fprintf(&b, "  Status:   %s\n", RenderStatus(task.Status))
	if task.Deadline != nil {
		fmt.Fprintf(&b, "  Deadline: %s\n", renderDeadline(*task.Deadline, task.Status, time.Now()))
	}
	fmt.Fprintf(&b, "  Created:  %s\n", RenderMuted(task.CreatedAt.Local().Format(dateLayout)))
	fmt.Fprintf(&b, "  Updated:  %s\n", RenderMuted(task.UpdatedAt.Local().Format(dateLayout)))

	if task.Description != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(task.Description))
		b.WriteString("\n")
	}

	if len(task.Subtasks) > 0 {
		done := 0
		for _, sub := range task.Subtasks {
			if sub.Status == schema.StatusDone {
				done++
			}
		}
		fmt.Fprintf(&b, "\n  Subtasks (%d/%d done):\n", done, len(task.Subtasks))
		for _, sub := range task.Subtasks {
			fmt.Fprintf(&b, "    %s %s %s\n", StatusIcon(sub.Status), RenderMuted(fmt.Sprintf("#%d", sub.ID)), sub.Title)
		}
	}

	if task.HowTo != nil {
		heading := "How-to"
		if task.HowTo.Title != "" {
			heading += ": " + task.HowTo.Title
		}
		fmt.Fprintf(&b, "\n  %s\n", RenderBold(heading))
		for i, step := range task.HowTo.Steps {
			fmt.Fprintf(&b, "    %d. %s\n", i+1, step)
		}
	}
	return b.String()
}

// RenderTaskList renders one line per task summary.
func RenderTaskList(tasks []*schema.TaskSummary) string {
	if len(tasks) == 0 {
		return RenderMuted("No tasks.") + "\n"
	}

	now := time.Now()
	var b strings.Builder
	for _, t := range tasks {
		line := fmt.Sprintf("%s %s %s", StatusIcon(t.Status), RenderAccent(fmt.Sprintf("#%-4d", t.ID)), t.Title)
		var extra []string
		if t.SubtaskCount > 0 {
			extra = append(extra, fmt.Sprintf("%d subtasks", t.SubtaskCount))
		}
		if t.HasHowTo {
			extra = append(extra, "how-to")
		}
		if t.Deadline != nil {
			extra = append(extra, "due "+renderDeadline(*t.Deadline, t.Status, now))
		}
		if len(extra) > 0 {
			line += " " + RenderMuted("("+strings.Join(extra, ", ")+")")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// renderDeadline warns about deadlines that passed on unfinished tasks.
func renderDeadline(deadline time.Time, status schema.Status, now time.Time) string {
	text := deadline.Local().Format(dateLayout)
	if deadline.Before(now) && !status.Terminal() {
		return RenderWarn(text + " (overdue)")
	}
	return text
}
