package task

import (
	"context"
	"errors"

	"github.com/phrazzld/matcher-api/internal/domain"
)

// ErrOwnerGone is returned by a Processor when the record a queue item
// points at no longer exists. The item is vacuously complete: there is
// nothing left to do for it, so the worker removes it without counting a
// failure.
var ErrOwnerGone = errors.New("queue item owner no longer exists")

// Batch carries whatever a Processor prefetched for one cycle. Its concrete
// type is private to each processor; the worker only threads it through.
type Batch any

// Processor handles one queue kind. Prepare runs once per cycle and bulk
// loads the owning records, so per-item handling needs no extra round
// trips. Handle runs once per item, possibly concurrently with other items
// of the same cycle.
type Processor interface {
	// Kind reports which queue kind this processor drains.
	Kind() domain.QueueKind

	// Prepare bulk-prefetches state for the cycle's items.
	Prepare(ctx context.Context, items []*domain.QueueItem) (Batch, error)

	// Handle processes one item. Returning nil or ErrOwnerGone completes
	// the item; any other error schedules a retry.
	Handle(ctx context.Context, item *domain.QueueItem, batch Batch) error
}
