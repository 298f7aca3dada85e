package quota

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRetryFallbackBound(t *testing.T) {
	now := time.Now().UTC()

	// 60s ±10% → always within 54s and 66s of now.
	for i := 0; i < 200; i++ {
		next := NextRetry(now, 1, errors.New("rate limit exceeded"))
		delta := next.Sub(now)
		assert.GreaterOrEqual(t, delta, 54*time.Second)
		assert.LessOrEqual(t, delta, 66*time.Second)
	}
}

func TestNextRetryTakesLargerHint(t *testing.T) {
	now := time.Now().UTC()
	// Request-rate window of 30s, token-rate window of 1m5s: both must
	// clear, so the larger hint wins.
	err := errors.New("429: requests per minute resets in 30s, input tokens per minute resets in 1m5s")

	for i := 0; i < 100; i++ {
		delta := NextRetry(now, 2, err).Sub(now)
		assert.GreaterOrEqual(t, delta, 64*time.Second)
		assert.LessOrEqual(t, delta, 66*time.Second)
	}
}

func TestNextRetryFractionalHint(t *testing.T) {
	now := time.Now().UTC()
	err := errors.New(`please retry in 5.099s`)

	delta := NextRetry(now, 1, err).Sub(now)
	assert.GreaterOrEqual(t, delta, 4*time.Second)
	assert.LessOrEqual(t, delta, 7*time.Second)
}

func TestResetHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
		ok   bool
	}{
		{"no hint", errors.New("quota exceeded"), 0, false},
		{"nil", nil, 0, false},
		{"single seconds", errors.New("retry in 17s"), 17 * time.Second, true},
		{"minutes only", errors.New("window resets in 2m"), 2 * time.Minute, true},
		{"combined", errors.New("resets in 1m5s"), 65 * time.Second, true},
		{"largest of several", errors.New("request window 10s, token window 45s"), 45 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resetHint(tt.err)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSymmetricJitterBound(t *testing.T) {
	for i := 0; i < 200; i++ {
		j := symmetricJitter(time.Second)
		assert.GreaterOrEqual(t, j, -time.Second)
		assert.LessOrEqual(t, j, time.Second)
	}
}
