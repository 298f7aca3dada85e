package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives one Worker on a fixed poll interval. A tick that arrives
// while the previous cycle is still running is skipped, so cycles of one
// kind never overlap no matter how long a cycle takes.
type Scheduler struct {
	worker   *Worker
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	running     bool
	inCycle     bool
	cancelLoop  context.CancelFunc
	cycleCtx    context.Context
	cancelCycle context.CancelFunc
	done        chan struct{}
	cycles      sync.WaitGroup
}

// NewScheduler creates a Scheduler for the worker.
func NewScheduler(worker *Worker, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		worker:   worker,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the polling loop. Starting an already-running scheduler is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	// Cycles run on their own context so stopping the ticker never aborts
	// work already in flight; the cycle context is cancelled only when the
	// stop grace period runs out.
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	cycleCtx, cancelCycle := context.WithCancel(context.Background())

	s.running = true
	s.cancelLoop = cancelLoop
	s.cycleCtx = cycleCtx
	s.cancelCycle = cancelCycle
	s.done = make(chan struct{})

	s.logger.Info("starting worker",
		slog.String("kind", string(s.worker.Kind())),
		slog.Duration("poll_interval", s.interval))

	go s.loop(loopCtx, s.done)
}

// Stop halts polling and waits up to grace for an in-flight cycle to
// finish. The in-flight cycle is not cancelled while the grace period runs;
// only when it elapses is the cycle context cancelled to force an exit.
// Stopping a scheduler that is not running is a no-op.
func (s *Scheduler) Stop(grace time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancelLoop := s.cancelLoop
	cancelCycle := s.cancelCycle
	done := s.done
	s.mu.Unlock()

	cancelLoop()

	select {
	case <-done:
		cancelCycle()
	case <-time.After(grace):
		s.logger.Warn("worker did not drain within grace period, cancelling cycle",
			slog.String("kind", string(s.worker.Kind())),
			slog.Duration("grace", grace))
		cancelCycle()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cycles.Wait()
			s.logger.Info("worker stopped",
				slog.String("kind", string(s.worker.Kind())))
			return

		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce starts one cycle unless one is already in flight.
func (s *Scheduler) runOnce() {
	s.mu.Lock()
	if s.inCycle {
		s.mu.Unlock()
		s.logger.Debug("previous cycle still running, skipping tick",
			slog.String("kind", string(s.worker.Kind())))
		return
	}
	s.inCycle = true
	s.cycles.Add(1)
	cycleCtx := s.cycleCtx
	s.mu.Unlock()

	go func() {
		defer s.cycles.Done()
		defer func() {
			s.mu.Lock()
			s.inCycle = false
			s.mu.Unlock()
		}()

		s.worker.RunCycle(cycleCtx)
	}()
}
