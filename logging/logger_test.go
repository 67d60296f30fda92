package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func TestNewJSONLogger_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, slog.LevelInfo)

	logger.Info("tool.dispatch.success", "tool", "drop_column", "duration_ms", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool.dispatch.success", entry["msg"])
	assert.Equal(t, "drop_column", entry["tool"])
}

func TestNewJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestNoOpLogger(t *testing.T) {
	// Must be safe to call with any arguments.
	l := NoOpLogger{}
	l.Debug("a")
	l.Info("b", "k", 1)
	l.Warn("c", "k")
	l.Error("d", "k", "v", "extra")
}
