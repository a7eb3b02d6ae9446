package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsServiceAndContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "analytics-api",
		Environment: "test",
	})

	ctx := WithOperator(WithRequestID(context.Background(), "req-1"), "ops@example.com")
	logger.With("component", "analytics").InfoContext(ctx, "dataset loaded", "tickets", 1200)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dataset loaded", entry["msg"])
	assert.Equal(t, "analytics-api", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "ops@example.com", entry["operator"])
	assert.Equal(t, "analytics", entry["component"])
	assert.Equal(t, float64(1200), entry["tickets"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(name))
		})
	}
}
