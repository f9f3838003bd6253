package repo

import (
	"context"

	"github.com/mschirtzinger/tasktree/internal/store/db"
	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

// Stats summarizes the contents of the store.
type Stats struct {
	Tasks    int                   `json:"tasks" yaml:"tasks"`
	Subtasks int                   `json:"subtasks" yaml:"subtasks"`
	ByStatus map[schema.Status]int `json:"by_status" yaml:"by_status"`
}

// Stats counts tasks per status and subtasks overall from one snapshot.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := r.read(ctx, func(tx *db.Tx) error {
		var err error
		if stats.ByStatus, err = tx.CountTasksByStatus(ctx); err != nil {
			return err
		}
		for _, n := range stats.ByStatus {
			stats.Tasks += n
		}
		stats.Subtasks, err = tx.CountSubtasks(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
