package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxAttempts bounds the inline retry helper and the worker retry
// ceiling.
const DefaultMaxAttempts = 3

// ErrRetriesExhausted is returned when every inline attempt was rate
// limited. Callers treat it as a classified rate-limit: the unit of work
// moves to the background queue instead of failing the request.
var ErrRetriesExhausted = errors.New("rate limit retries exhausted")

// Retry runs fn, retrying on classified rate-limit errors while attempts
// remain. It is used only on the inline request path: each backoff sleep
// blocks just the initiating request, and there are never more than
// maxAttempts-1 sleeps. Non-rate-limit errors propagate immediately without
// retrying.
func Retry(ctx context.Context, logger *slog.Logger, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsRateLimit(err) {
			return err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		wait := time.Until(NextRetry(time.Now().UTC(), attempt, err))
		logger.WarnContext(ctx, "inference call rate limited, retrying inline",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"wait", wait.Round(time.Millisecond).String())

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrRetriesExhausted, ctx.Err())
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, maxAttempts, lastErr)
}
