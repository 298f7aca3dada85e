package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// QueueStore implements the store.QueueStore interface using PostgreSQL.
type QueueStore struct {
	db store.DBTX
}

// NewQueueStore creates a new QueueStore.
func NewQueueStore(db store.DBTX) *QueueStore {
	return &QueueStore{db: db}
}

// WithTx returns a QueueStore bound to the provided transaction.
func (s *QueueStore) WithTx(tx *sql.Tx) store.QueueStore {
	return &QueueStore{db: tx}
}

const queueColumns = `id, kind, owner_key, status, attempt_count, next_retry_at, last_error, created_at, updated_at`

// Upsert enqueues one unit of work onto the (kind, owner_key) row, creating
// it or resetting an existing row (dormant included) back to a fresh pending
// state.
func (s *QueueStore) Upsert(ctx context.Context, kind domain.QueueKind, ownerKey string) (*domain.QueueItem, error) {
	log := logger.FromContext(ctx)

	item, err := domain.NewQueueItem(kind, ownerKey)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO retry_queue (id, kind, owner_key, status, attempt_count, next_retry_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', 0, NULL, NULL, $4, $4)
		ON CONFLICT (kind, owner_key) DO UPDATE
		SET status = 'pending', attempt_count = 0, next_retry_at = NULL, last_error = NULL, updated_at = $4
		RETURNING ` + queueColumns + `
	`

	row := s.db.QueryRowContext(ctx, query, item.ID, item.Kind, item.OwnerKey, time.Now().UTC())

	upserted, err := scanQueueItem(row)
	if err != nil {
		log.Error("failed to upsert queue item",
			"kind", kind,
			"owner_key", ownerKey,
			"error", err)
		return nil, MapError(err)
	}

	return upserted, nil
}

// GetEligible returns every pending item of the kind whose retry time has
// arrived (or was never set). No page limit: one worker cycle takes the
// whole eligible set.
func (s *QueueStore) GetEligible(ctx context.Context, kind domain.QueueKind) ([]*domain.QueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM retry_queue
		WHERE kind = $1
		  AND status = 'pending'
		  AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, kind, time.Now().UTC())
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue item rows: %w", err)
	}

	return items, nil
}

// Delete removes a queue item. A missing row is not an error: the atomic
// match completion deletes inside its transaction, and the worker's generic
// cleanup may then delete the same id again.
func (s *QueueStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM retry_queue WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return MapError(err)
	}

	return nil
}

// MarkFailure records one failed attempt.
func (s *QueueStore) MarkFailure(ctx context.Context, id uuid.UUID, attemptCount int, nextRetryAt time.Time, status domain.QueueItemStatus, lastError string) error {
	query := `
		UPDATE retry_queue
		SET attempt_count = $2, next_retry_at = $3, status = $4, last_error = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, attemptCount, nextRetryAt, status, lastError, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "queue item"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrQueueItemNotFound, err)
	}

	return nil
}

// Stats returns per-kind, per-status row counts.
func (s *QueueStore) Stats(ctx context.Context) ([]store.QueueStat, error) {
	query := `
		SELECT kind, status, COUNT(*)
		FROM retry_queue
		GROUP BY kind, status
		ORDER BY kind, status
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var stats []store.QueueStat
	for rows.Next() {
		var stat store.QueueStat
		if err := rows.Scan(&stat.Kind, &stat.Status, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan queue stat row: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue stat rows: %w", err)
	}

	return stats, nil
}

func scanQueueItem(row rowScanner) (*domain.QueueItem, error) {
	var item domain.QueueItem
	var nextRetryAt sql.NullTime
	var lastError sql.NullString

	if err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.OwnerKey,
		&item.Status,
		&item.AttemptCount,
		&nextRetryAt,
		&lastError,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if nextRetryAt.Valid {
		t := nextRetryAt.Time
		item.NextRetryAt = &t
	}
	item.LastError = lastError.String

	return &item, nil
}
