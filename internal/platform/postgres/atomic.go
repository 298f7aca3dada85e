package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// MatchCompleter implements the store.MatchCompleter interface against a
// connection pool. It needs the pool, not a DBTX, because it opens its own
// transaction.
type MatchCompleter struct {
	db *sql.DB
}

// NewMatchCompleter creates a new MatchCompleter.
func NewMatchCompleter(db *sql.DB) *MatchCompleter {
	return &MatchCompleter{db: db}
}

// CreateMatchResultCompletingItem writes a match result and removes its
// queue item in one transaction. Either both land or neither does, so a
// crash between the two writes cannot strand a scored pair on the queue or
// drop a queued pair that was never scored.
func (c *MatchCompleter) CreateMatchResultCompletingItem(ctx context.Context, result *domain.MatchResult, queueItemID uuid.UUID) error {
	log := logger.FromContext(ctx)

	return store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		created, err := NewMatchStore(tx).Create(ctx, result)
		if err != nil {
			return err
		}
		if !created {
			// Another writer scored this pair first; the queue item is
			// still ours to retire.
			log.Debug("match result already present, completing queue item",
				slog.String("resume_hash", result.ResumeHash),
				slog.String("job_hash", result.JobHash))
		}

		return NewQueueStore(tx).Delete(ctx, queueItemID)
	})
}
