package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// legacyRecord is one task as written by the flat-file server.
type legacyRecord struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Completed   *bool             `json:"completed"`
	Deadline    *string           `json:"deadline"`
	CreatedAt   *string           `json:"created_at"`
	HowToGuide  string            `json:"how_to_guide"`
	Subtasks    []json.RawMessage `json:"subtasks"`
}

// legacyEnvelope is the context-grouped layout.
type legacyEnvelope struct {
	Contexts []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"contexts"`
	TasksByContext map[string][]json.RawMessage `json:"tasks_by_context"`
}

// parseLegacy splits the file into raw top-level records. Only a file whose
// overall structure cannot be read is an error; individual records are
// decoded later so one bad entry does not sink the rest.
func parseLegacy(data []byte) ([]json.RawMessage, []string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrLegacyCorrupt, err)
		}
		return records, nil, nil

	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err == nil {
			if _, ok := probe["tasks_by_context"]; ok {
				return parseEnvelope(trimmed)
			}
			return []json.RawMessage{trimmed}, nil, nil
		}
		return parseLines(trimmed)
	}

	return nil, nil, fmt.Errorf("%w: unexpected leading %q", ErrLegacyCorrupt, trimmed[0])
}

// parseEnvelope flattens every context, declared contexts first, then any
// extra keys in sorted order.
func parseEnvelope(data []byte) ([]json.RawMessage, []string, error) {
	var env legacyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLegacyCorrupt, err)
	}

	var order []string
	seen := make(map[string]bool)
	for _, c := range env.Contexts {
		if _, ok := env.TasksByContext[c.ID]; ok && !seen[c.ID] {
			order = append(order, c.ID)
			seen[c.ID] = true
		}
	}
	var extra []string
	for id := range env.TasksByContext {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var records []json.RawMessage
	for _, id := range order {
		records = append(records, env.TasksByContext[id]...)
	}
	return records, nil, nil
}

// parseLines reads JSON Lines. Lines that are not valid JSON are reported
// as warnings; if no line parses the file is corrupt.
func parseLines(data []byte) ([]json.RawMessage, []string, error) {
	var records []json.RawMessage
	var warnings []string

	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			warnings = append(warnings, fmt.Sprintf("line %d: invalid JSON, skipped", i+1))
			continue
		}
		records = append(records, json.RawMessage(line))
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: no readable records", ErrLegacyCorrupt)
	}
	return records, warnings, nil
}

// importedTask is a decoded, validated record ready to be written.
type importedTask struct {
	title       string
	description string
	status      schema.Status
	deadline    *time.Time
	createdAt   time.Time
	steps       []string
	subtasks    []importedSubtask
}

type importedSubtask struct {
	title  string
	status schema.Status
}

// decodeRecord validates one top-level record. A returned error means the
// record is skipped. Problems confined to optional fields or to a subtask
// are returned as warnings and the rest of the record is kept.
func decodeRecord(raw json.RawMessage, base time.Time) (*importedTask, []string, error) {
	var rec legacyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, fmt.Errorf("invalid record: %w", err)
	}

	title, err := schema.CleanTitle(rec.Title)
	if err != nil {
		return nil, nil, err
	}
	status, err := recordStatus(rec.Status, rec.Completed)
	if err != nil {
		return nil, nil, err
	}

	task := &importedTask{
		title:       title,
		description: strings.TrimSpace(rec.Description),
		status:      status,
		steps:       guideSteps(rec.HowToGuide),
	}

	var warnings []string
	if rec.CreatedAt != nil && *rec.CreatedAt != "" {
		if created, ok := parseLegacyTime(*rec.CreatedAt); ok {
			task.createdAt = created
		} else {
			warnings = append(warnings, fmt.Sprintf("%q: unreadable created_at %q, using import time", title, *rec.CreatedAt))
		}
	}
	if rec.Deadline != nil && strings.TrimSpace(*rec.Deadline) != "" {
		if d, err := schema.ParseDeadline(*rec.Deadline, base); err == nil {
			task.deadline = &d
		} else {
			warnings = append(warnings, fmt.Sprintf("%q: dropped deadline: %v", title, err))
		}
	}

	task.subtasks, warnings = flattenSubtasks(title, rec.Subtasks, warnings)
	return task, warnings, nil
}

// flattenSubtasks walks nested subtasks in pre-order.
func flattenSubtasks(parent string, raws []json.RawMessage, warnings []string) ([]importedSubtask, []string) {
	var out []importedSubtask
	for i, raw := range raws {
		var rec legacyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			warnings = append(warnings, fmt.Sprintf("%q: subtask %d skipped: %v", parent, i+1, err))
			continue
		}
		title, err := schema.CleanTitle(rec.Title)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%q: subtask %d skipped: %v", parent, i+1, err))
			continue
		}
		status, err := recordStatus(rec.Status, rec.Completed)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%q: subtask %q skipped: %v", parent, title, err))
			continue
		}
		out = append(out, importedSubtask{title: title, status: status})

		var nested []importedSubtask
		nested, warnings = flattenSubtasks(title, rec.Subtasks, warnings)
		out = append(out, nested...)
	}
	return out, warnings
}

// recordStatus prefers an explicit status and falls back to the legacy
// completed flag.
func recordStatus(status string, completed *bool) (schema.Status, error) {
	if strings.TrimSpace(status) != "" {
		return schema.ParseStatus(status)
	}
	if completed != nil && *completed {
		return schema.StatusDone, nil
	}
	return schema.StatusOpen, nil
}

// guideSteps splits a free-text guide into steps, one per non-blank line,
// dropping list markers such as "1." or "-".
func guideSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(stripListMarker(line))
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

func stripListMarker(line string) string {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return line[len(bullet):]
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return line[i+2:]
	}
	return line
}

// legacyTimeLayouts covers RFC 3339 and Python's isoformat() without a zone.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseLegacyTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
