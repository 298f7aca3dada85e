package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
)

// HashPair is the content-hash key of one match result.
type HashPair struct {
	ResumeHash string
	JobHash    string
}

// MatchStore defines the interface for match result persistence. Match
// results are unique per (resume hash, job hash) pair and immutable once
// present; the unique constraint is the only duplicate guard, so concurrent
// duplicate inserts are absorbed rather than surfaced.
type MatchStore interface {
	// GetByHashPair retrieves the result for one pair.
	// Returns ErrMatchResultNotFound if the pair has not been scored.
	GetByHashPair(ctx context.Context, pair HashPair) (*domain.MatchResult, error)

	// GetByHashPairs retrieves all existing results for the given pairs in
	// one round trip. A request matching K candidates against one job must
	// not issue K lookups. Unscored pairs are simply absent.
	GetByHashPairs(ctx context.Context, pairs []HashPair) ([]*domain.MatchResult, error)

	// Create inserts one result, silently ignoring a concurrent duplicate:
	// created=false means another writer won the race and the surviving
	// row is authoritative.
	Create(ctx context.Context, result *domain.MatchResult) (created bool, err error)

	// BatchCreate inserts many results, chunking oversized batches to
	// respect the driver's parameter ceiling and inserting chunks
	// concurrently. Pair-uniqueness conflicts are ignored; only the rows
	// actually created are returned.
	BatchCreate(ctx context.Context, results []*domain.MatchResult) ([]*domain.MatchResult, error)

	// WithTx returns a MatchStore bound to the provided transaction.
	WithTx(tx *sql.Tx) MatchStore
}

// MatchCompleter atomically records a match result and retires its queue
// item. The two writes commit together or not at all.
type MatchCompleter interface {
	CreateMatchResultCompletingItem(ctx context.Context, result *domain.MatchResult, queueItemID uuid.UUID) error
}
