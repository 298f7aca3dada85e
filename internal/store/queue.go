package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
)

// QueueStat is one (kind, status) bucket of the retry queue, for
// operability reporting.
type QueueStat struct {
	Kind   domain.QueueKind       `json:"kind"`
	Status domain.QueueItemStatus `json:"status"`
	Count  int                    `json:"count"`
}

// QueueStore defines the interface for retry-queue persistence. The queue
// holds at most one row per (kind, owner key).
type QueueStore interface {
	// Upsert enqueues a unit of work. If a row for (kind, ownerKey)
	// already exists, pending or dormant, it is reset to a fresh pending
	// state: attempt count zero, no scheduled retry, no recorded error. The caller is never blocked waiting on the queue.
	Upsert(ctx context.Context, kind domain.QueueKind, ownerKey string) (*domain.QueueItem, error)

	// GetEligible returns every item of the kind that is due now:
	// status pending and next_retry_at unset or in the past. There is no
	// page limit; one worker cycle drains everything eligible.
	GetEligible(ctx context.Context, kind domain.QueueKind) ([]*domain.QueueItem, error)

	// Delete removes a completed (or vacuous) item. Deleting an item that
	// is already gone is a no-op, which lets the atomic match completion
	// and the generic worker cleanup coexist.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkFailure records a failed attempt: monotonically increased
	// attempt count, the classification-derived next retry time, the
	// resulting status (pending again, or dormant at the ceiling), and the
	// error text for inspection.
	MarkFailure(ctx context.Context, id uuid.UUID, attemptCount int, nextRetryAt time.Time, status domain.QueueItemStatus, lastError string) error

	// Stats returns per-kind, per-status row counts.
	Stats(ctx context.Context) ([]QueueStat, error)

	// WithTx returns a QueueStore bound to the provided transaction.
	WithTx(tx *sql.Tx) QueueStore
}
