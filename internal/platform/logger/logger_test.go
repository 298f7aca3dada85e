package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN", "bogus", ""} {
		logger := Setup(level)
		assert.NotNil(t, logger, "level %q", level)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	got := FromContext(ctx)

	assert.Same(t, logger, got)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	assert.NotNil(t, got)
}
