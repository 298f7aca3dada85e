package quota

import (
	"math/rand"
	"regexp"
	"time"
)

const (
	// fallbackWindow is used when the error carries no machine-readable
	// reset hint.
	fallbackWindow = time.Minute

	// fallbackJitterFraction is the ±10% spread applied to the fallback
	// window.
	fallbackJitterFraction = 0.10

	// hintJitter is the ±1s spread applied around a parsed reset hint.
	// Jitter exists to desynchronize workers that were rate-limited at the
	// same instant and would otherwise all retry together.
	hintJitter = time.Second
)

// durationToken matches the duration strings providers embed in rate-limit
// messages, e.g. "1m5s", "30s", "5.099s", "2m".
var durationToken = regexp.MustCompile(`\d+m\d+(?:\.\d+)?s|\d+(?:\.\d+)?s|\d+m\b`)

// NextRetry computes when a rate-limited unit of work should next be
// attempted. If the error text carries reset hints, the largest one wins:
// providers report the request-rate window and the token-rate window
// independently, and both must clear before a retry can succeed. Without a
// hint it falls back to a fixed one-minute window. attempt is accepted for
// symmetry with the retry ceiling bookkeeping; the window deliberately does
// not grow with it, because the provider's own reset time is the real clock.
func NextRetry(now time.Time, attempt int, err error) time.Time {
	if hint, ok := resetHint(err); ok {
		return now.Add(hint + symmetricJitter(hintJitter))
	}

	jitter := time.Duration(float64(fallbackWindow) * fallbackJitterFraction)
	return now.Add(fallbackWindow + symmetricJitter(jitter))
}

// resetHint extracts the largest parseable duration token from the error
// message. Returns false when the error carries none.
func resetHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var max time.Duration
	for _, token := range durationToken.FindAllString(err.Error(), -1) {
		d, parseErr := time.ParseDuration(token)
		if parseErr != nil {
			continue
		}
		if d > max {
			max = d
		}
	}

	return max, max > 0
}

// symmetricJitter returns a uniform duration in [-spread, +spread].
func symmetricJitter(spread time.Duration) time.Duration {
	return time.Duration((rand.Float64()*2 - 1) * float64(spread))
}
