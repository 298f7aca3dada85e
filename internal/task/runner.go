package task

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/store"
)

// Runner owns one Scheduler per queue kind and exposes per-kind and
// whole-fleet lifecycle control.
type Runner struct {
	schedulers map[domain.QueueKind]*Scheduler
	grace      time.Duration
	logger     *slog.Logger
}

// NewRunner creates a Runner from the given processors, one scheduler each.
func NewRunner(processors []Processor, queue store.QueueStore, maxAttempts int, interval, grace time.Duration, logger *slog.Logger) (*Runner, error) {
	schedulers := make(map[domain.QueueKind]*Scheduler, len(processors))
	for _, processor := range processors {
		kind := processor.Kind()
		if _, dup := schedulers[kind]; dup {
			return nil, fmt.Errorf("duplicate processor for kind %q", kind)
		}
		worker := NewWorker(queue, processor, maxAttempts, logger)
		schedulers[kind] = NewScheduler(worker, interval, logger)
	}

	return &Runner{
		schedulers: schedulers,
		grace:      grace,
		logger:     logger,
	}, nil
}

// StartWorker starts the polling loop for one kind.
func (r *Runner) StartWorker(kind domain.QueueKind) error {
	scheduler, ok := r.schedulers[kind]
	if !ok {
		return fmt.Errorf("no worker registered for kind %q", kind)
	}
	scheduler.Start()
	return nil
}

// StopWorker stops the polling loop for one kind, waiting up to the
// configured grace period for an in-flight cycle.
func (r *Runner) StopWorker(kind domain.QueueKind) error {
	scheduler, ok := r.schedulers[kind]
	if !ok {
		return fmt.Errorf("no worker registered for kind %q", kind)
	}
	scheduler.Stop(r.grace)
	return nil
}

// StartAll starts every registered worker.
func (r *Runner) StartAll() {
	for _, kind := range domain.QueueKinds {
		if scheduler, ok := r.schedulers[kind]; ok {
			scheduler.Start()
		}
	}
}

// StopAll stops every registered worker. Workers stop concurrently so the
// total shutdown wait is bounded by one grace period, not four.
func (r *Runner) StopAll() {
	done := make(chan struct{}, len(r.schedulers))
	for _, scheduler := range r.schedulers {
		go func(s *Scheduler) {
			s.Stop(r.grace)
			done <- struct{}{}
		}(scheduler)
	}
	for range r.schedulers {
		<-done
	}
	r.logger.Info("all workers stopped")
}
