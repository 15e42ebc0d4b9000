package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogFilePath builds the log file path of one run, e.g.
// logs/unitsim.scrimmage.20260212_213836.log.
func LogFilePath(logsDir, program, matchName string, sessionStart time.Time) string {
	name := program
	if matchName != "" {
		name += "." + matchName
	}
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.UTC().Format("20060102_150405")),
	)
}

// OpenLogFile creates logsDir if needed and opens the run's log file for
// appending.
func OpenLogFile(logsDir, program, matchName string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, program, matchName, sessionStart)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
