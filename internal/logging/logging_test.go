package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name      string
		logsDir   string
		program   string
		matchName string
		want      string
	}{
		{
			name:      "basic path",
			logsDir:   "logs",
			program:   "unitsim",
			matchName: "scrimmage",
			want:      filepath.Join("logs", "unitsim.scrimmage.20260212_213836.log"),
		},
		{
			name:    "no match name",
			logsDir: "./logs",
			program: "unitsim",
			want:    filepath.Join(".", "logs", "unitsim.20260212_213836.log"),
		},
		{
			name:      "absolute path",
			logsDir:   filepath.Join("/var", "log", "battlecode"),
			program:   "unitsim",
			matchName: "finals",
			want:      filepath.Join("/var", "log", "battlecode", "unitsim.finals.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.program, tt.matchName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogFilePath_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2026, 2, 12, 23, 0, 0, 0, loc)
	assert.Equal(t, filepath.Join("logs", "x.20260212_210000.log"), LogFilePath("logs", "x", "", start))
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	f, err := OpenLogFile(dir, "unitsim", "m", start)
	require.NoError(t, err)
	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(LogFilePath(dir, "unitsim", "m", start))
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}
