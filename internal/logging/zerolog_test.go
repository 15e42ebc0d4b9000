package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZerolog_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewZerolog(&bytes.Buffer{}, tt.level)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewZerolog_Output(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "info")
	logger.Info().Str("path", "match.db").Msg("Using local SQLite DB")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "match.db", entry["path"])
	assert.Contains(t, entry, "time")
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(NewZerolog(&buf, "debug"))

	adapter.Debug("test message", "key1", "value1", "key2", 42, 7, "skipped", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "value1", entry["key1"])
	assert.Equal(t, float64(42), entry["key2"])
	assert.NotContains(t, entry, "dangling")

	buf.Reset()
	adapter.Error("write failed", "error", "disk full")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
}

func TestZerologAdapter_FilteredByLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(NewZerolog(&buf, "error"))
	adapter.Info("quiet")
	assert.Empty(t, buf.String())
}
