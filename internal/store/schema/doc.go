// Package schema defines the task, subtask and how-to guide records stored by tasktree.
//
// # Overview
//
// A Task is the top-level unit of work. It exclusively owns zero or more
// Subtasks and at most one HowTo guide. Deleting a task removes everything it
// owns.
//
//	task := &schema.Task{
//	    Title:  "Write report",
//	    Status: schema.StatusOpen,
//	}
//
// # Status
//
// Status is a closed enumeration. Strings coming from callers or legacy files
// go through ParseStatus, so an unknown status can never reach storage:
//
//	st, err := schema.ParseStatus("in_progress")
//
// done and cancelled are terminal. The only move out of a terminal status is
// an explicit reopen to open. CheckTransition reports whether a move is
// allowed and whether it changes anything at all:
//
//	changed, err := schema.CheckTransition(schema.StatusDone, schema.StatusOpen)
//
// # Deadlines
//
// ParseDeadline accepts RFC3339 timestamps, plain dates (2006-01-02) and
// natural language such as "next friday" or "in 3 days".
package schema
