package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WahabBasa/todoist-agent-backend/internal/config"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantLevel slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"mixed case", "DEBUG", slog.LevelDebug},
		{"invalid falls back to info", "verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := Setup(config.ServerConfig{LogLevel: tt.logLevel})
			require.NoError(t, err)
			require.NotNil(t, log)

			assert.True(t, log.Enabled(context.Background(), tt.wantLevel))
			if tt.wantLevel > slog.LevelDebug {
				assert.False(t, log.Enabled(context.Background(), tt.wantLevel-1))
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := WithContext(context.Background(), log)

		assert.Same(t, log, FromContext(ctx))
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("or-default prefers context logger", func(t *testing.T) {
		ctxLog := slog.New(slog.NewTextHandler(io.Discard, nil))
		def := slog.New(slog.NewTextHandler(io.Discard, nil))

		ctx := WithContext(context.Background(), ctxLog)
		assert.Same(t, ctxLog, FromContextOrDefault(ctx, def))
	})

	t.Run("or-default falls back to provided default", func(t *testing.T) {
		def := slog.New(slog.NewTextHandler(io.Discard, nil))
		assert.Same(t, def, FromContextOrDefault(context.Background(), def))
	})
}
