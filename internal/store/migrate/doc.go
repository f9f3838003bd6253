// Package migrate imports the legacy tasks.json file into the relational
// store.
//
// The legacy file was written by the flat-file version of the server and
// comes in three shapes:
//
//   - a JSON array of task records
//   - an envelope {"contexts": [...], "tasks_by_context": {"<id>": [...]}}
//   - JSON Lines, one task record per line
//
// A record may nest "subtasks" to any depth. The relational model has a
// single level of subtasks, so deeper descendants are flattened in
// pre-order under the top-level task. Free-text "how_to_guide" becomes a
// how-to with one step per non-blank line.
//
// The import runs once per file content. All tasks and the sentinel row
// (keyed by the SHA-256 of the file) are written in one transaction, then
// the file is renamed out of the way. Running it again finds either no
// file or a recorded digest and writes nothing.
package migrate
