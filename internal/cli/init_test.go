package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"wallet/internal/config"
	"wallet/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, log.ComponentWorker)

	assert.Equal(t, log.ComponentWorker, logger.Component())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.Same(t, logger.Logger, slog.Default())
}

func TestSetupLoggerWithoutConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(nil, "")

	assert.Equal(t, log.ComponentApp, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
