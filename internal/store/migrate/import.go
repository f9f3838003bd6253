package migrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mschirtzinger/tasktree/internal/repo"
)

// ErrLegacyCorrupt is returned when the legacy file exists but its overall
// structure cannot be read. Individual bad records never cause it.
var ErrLegacyCorrupt = errors.New("legacy task file is corrupt")

// RetiredSuffix is appended to the legacy file name once it is imported.
const RetiredSuffix = ".imported"

// Options configures an import run.
type Options struct {
	Path       string           // Legacy tasks.json path
	Repository *repo.Repository // Destination store
	Logger     *log.Logger      // nil = stderr with an "[import] " prefix
	DryRun     bool             // Parse and report without writing
	KeepSource bool             // Leave the legacy file in place after import
	// Once skips the import when any legacy file was imported into this
	// store before, whatever its contents. Without it only a file with the
	// same digest is skipped.
	Once bool
}

// ImportResult contains statistics about the import.
type ImportResult struct {
	Path            string   `json:"path" yaml:"path"`
	Digest          string   `json:"digest,omitempty" yaml:"digest,omitempty"`
	TasksImported   int      `json:"tasks_imported" yaml:"tasks_imported"`
	SubtasksCreated int      `json:"subtasks_created" yaml:"subtasks_created"`
	GuidesCreated   int      `json:"guides_created" yaml:"guides_created"`
	Skipped         int      `json:"skipped" yaml:"skipped"`
	Warnings        []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// AlreadyImported is set when an earlier run already imported this file,
	// or any file when Options.Once is set.
	AlreadyImported bool `json:"already_imported" yaml:"already_imported"`
	// RetiredTo is where the legacy file was moved, if it was.
	RetiredTo string `json:"retired_to,omitempty" yaml:"retired_to,omitempty"`
}

// ImportIfPresent imports the legacy file at legacyPath into repository if
// the file exists and nothing was imported into the store before. A missing
// file is not an error and yields an empty result. A file found after an
// earlier import is retired without being read into the store.
func ImportIfPresent(ctx context.Context, legacyPath string, repository *repo.Repository, logger *log.Logger) (*ImportResult, error) {
	return Import(ctx, Options{Path: legacyPath, Repository: repository, Logger: logger, Once: true})
}

// Import performs the legacy file import.
func Import(ctx context.Context, opts Options) (*ImportResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[import] ", log.LstdFlags)
	}
	result := &ImportResult{Path: opts.Path}

	if opts.Path == "" {
		return result, nil
	}
	// #nosec G304 - path comes from config or the CLI
	data, err := os.ReadFile(opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy file %s: %w", opts.Path, err)
	}

	sum := sha256.Sum256(data)
	result.Digest = hex.EncodeToString(sum[:])

	done, err := opts.Repository.ImportRecorded(ctx, result.Digest)
	if err != nil {
		return nil, fmt.Errorf("failed to check import sentinel: %w", err)
	}
	if done {
		logger.Printf("%s was already imported, retiring it", opts.Path)
	} else if opts.Once {
		if done, err = opts.Repository.ImportDone(ctx); err != nil {
			return nil, fmt.Errorf("failed to check import sentinel: %w", err)
		}
		if done {
			logger.Printf("Warning: store already holds a legacy import; %s was not imported, retiring it", opts.Path)
		}
	}
	if done {
		result.AlreadyImported = true
		if !opts.DryRun && !opts.KeepSource {
			result.RetiredTo = retire(opts.Path, logger)
		}
		return result, nil
	}

	raws, warnings, err := parseLegacy(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", opts.Path, err)
	}
	for _, w := range warnings {
		result.warn(logger, w)
		result.Skipped++
	}

	base := time.Now()
	var tasks []*importedTask
	for i, raw := range raws {
		task, warns, err := decodeRecord(raw, base)
		for _, w := range warns {
			result.warn(logger, w)
		}
		if err != nil {
			result.warn(logger, fmt.Sprintf("record %d skipped: %v", i+1, err))
			result.Skipped++
			continue
		}
		tasks = append(tasks, task)
	}

	if opts.DryRun {
		for _, task := range tasks {
			result.count(task)
		}
		return result, nil
	}

	err = opts.Repository.Batch(ctx, func(r *repo.Repository) error {
		for _, task := range tasks {
			if err := writeTask(ctx, r, task); err != nil {
				return fmt.Errorf("failed to import %q: %w", task.title, err)
			}
		}
		return r.RecordImport(ctx, result.Digest, opts.Path, len(tasks), result.Skipped)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", opts.Path, err)
	}
	for _, task := range tasks {
		result.count(task)
	}

	logger.Printf("Imported %d tasks (%d subtasks, %d guides) from %s, skipped %d",
		result.TasksImported, result.SubtasksCreated, result.GuidesCreated, opts.Path, result.Skipped)

	if !opts.KeepSource {
		result.RetiredTo = retire(opts.Path, logger)
	}
	return result, nil
}

func writeTask(ctx context.Context, r *repo.Repository, task *importedTask) error {
	opts := []repo.TaskOption{repo.WithStatus(task.status)}
	if task.deadline != nil {
		opts = append(opts, repo.WithDeadline(*task.deadline))
	}
	if !task.createdAt.IsZero() {
		opts = append(opts, repo.WithCreatedAt(task.createdAt))
	}

	created, err := r.CreateTask(ctx, task.title, task.description, opts...)
	if err != nil {
		return err
	}

	for _, sub := range task.subtasks {
		added, err := r.AddSubtask(ctx, created.ID, sub.title)
		if err != nil {
			return err
		}
		if sub.status != added.Status {
			if _, err := r.UpdateSubtaskStatus(ctx, added.ID, sub.status); err != nil {
				return err
			}
		}
	}

	if len(task.steps) > 0 {
		if _, err := r.SetHowTo(ctx, created.ID, "", task.steps); err != nil {
			return err
		}
	}
	return nil
}

// retire renames the legacy file to <path>.imported, or to a timestamped
// name if that is taken. Failure is logged; the digest sentinel already
// keeps the import from repeating.
func retire(path string, logger *log.Logger) string {
	target := path + RetiredSuffix
	if _, err := os.Stat(target); err == nil {
		target = target + "." + time.Now().Format("20060102-150405")
	}
	if err := os.Rename(path, target); err != nil {
		logger.Printf("Warning: failed to retire %s: %v", path, err)
		return ""
	}
	return target
}

func (r *ImportResult) warn(logger *log.Logger, msg string) {
	r.Warnings = append(r.Warnings, msg)
	logger.Printf("Warning: %s", msg)
}

func (r *ImportResult) count(task *importedTask) {
	r.TasksImported++
	r.SubtasksCreated += len(task.subtasks)
	if len(task.steps) > 0 {
		r.GuidesCreated++
	}
}
