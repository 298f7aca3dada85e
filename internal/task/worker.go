package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/quota"
	"github.com/phrazzld/matcher-api/internal/store"
)

// dormantWindow is how far out a dormant item's next retry is pushed. The
// row is effectively parked: it stays inspectable but never becomes
// eligible unless re-enqueued, which resets it to pending.
const dormantWindow = 365 * 24 * time.Hour

// Worker drains one queue kind. It owns no state between cycles; every
// cycle re-reads eligibility from the database.
type Worker struct {
	queue       store.QueueStore
	processor   Processor
	maxAttempts int
	logger      *slog.Logger
}

// NewWorker creates a Worker for the processor's kind.
func NewWorker(queue store.QueueStore, processor Processor, maxAttempts int, logger *slog.Logger) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = quota.DefaultMaxAttempts
	}

	return &Worker{
		queue:       queue,
		processor:   processor,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Kind reports which queue kind this worker drains.
func (w *Worker) Kind() domain.QueueKind {
	return w.processor.Kind()
}

// RunCycle executes one poll cycle: fetch everything eligible, prefetch the
// owning records in bulk, process items in parallel, and log aggregate
// counts. Item failures never abort the cycle.
func (w *Worker) RunCycle(ctx context.Context) {
	started := time.Now()
	log := w.logger.With(slog.String("kind", string(w.Kind())))

	items, err := w.queue.GetEligible(ctx, w.Kind())
	if err != nil {
		log.ErrorContext(ctx, "failed to fetch eligible queue items",
			slog.String("error", err.Error()))
		return
	}

	if len(items) == 0 {
		return
	}

	batch, err := w.processor.Prepare(ctx, items)
	if err != nil {
		log.ErrorContext(ctx, "failed to prepare worker cycle",
			slog.Int("items", len(items)),
			slog.String("error", err.Error()))
		return
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		succeeded int
		removed   int
		requeued  int
		dormant   int
	)

	for _, item := range items {
		wg.Add(1)
		go func(item *domain.QueueItem) {
			defer wg.Done()

			outcome := w.processItem(ctx, item, batch)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSucceeded:
				succeeded++
			case outcomeRemoved:
				removed++
			case outcomeRequeued:
				requeued++
			case outcomeDormant:
				dormant++
			}
		}(item)
	}
	wg.Wait()

	log.InfoContext(ctx, "worker cycle complete",
		slog.Int("eligible", len(items)),
		slog.Int("succeeded", succeeded),
		slog.Int("removed", removed),
		slog.Int("requeued", requeued),
		slog.Int("dormant", dormant),
		slog.Duration("duration", time.Since(started).Round(time.Millisecond)))
}

type cycleOutcome int

const (
	outcomeSucceeded cycleOutcome = iota
	outcomeRemoved
	outcomeRequeued
	outcomeDormant
)

// processItem handles one item and applies the resulting queue transition.
func (w *Worker) processItem(ctx context.Context, item *domain.QueueItem, batch Batch) cycleOutcome {
	log := w.logger.With(
		slog.String("kind", string(item.Kind)),
		slog.String("owner_key", item.OwnerKey))

	err := w.processor.Handle(ctx, item, batch)

	if err == nil || errors.Is(err, ErrOwnerGone) {
		if errors.Is(err, ErrOwnerGone) {
			log.InfoContext(ctx, "queue item owner gone, removing item")
		}
		// Delete tolerates rows the processor already removed inside its
		// own transaction.
		if delErr := w.queue.Delete(ctx, item.ID); delErr != nil {
			log.ErrorContext(ctx, "failed to delete completed queue item",
				slog.String("error", delErr.Error()))
		}
		if err == nil {
			return outcomeSucceeded
		}
		return outcomeRemoved
	}

	attempt := item.AttemptCount + 1
	status := domain.QueueItemStatusPending
	nextRetry := quota.NextRetry(time.Now().UTC(), attempt, err)

	if attempt >= w.maxAttempts {
		status = domain.QueueItemStatusDormant
		nextRetry = time.Now().UTC().Add(dormantWindow)
		log.WarnContext(ctx, "queue item reached retry ceiling, parking dormant",
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))
	} else {
		log.WarnContext(ctx, "queue item attempt failed, rescheduling",
			slog.Int("attempt", attempt),
			slog.Time("next_retry_at", nextRetry),
			slog.String("error", err.Error()))
	}

	if markErr := w.queue.MarkFailure(ctx, item.ID, attempt, nextRetry, status, err.Error()); markErr != nil {
		log.ErrorContext(ctx, "failed to record queue item failure",
			slog.String("error", markErr.Error()))
	}

	if status == domain.QueueItemStatusDormant {
		return outcomeDormant
	}
	return outcomeRequeued
}
