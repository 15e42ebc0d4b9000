package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// console targets, swapped in tests.
var (
	osStdout io.Writer = os.Stdout
	osStderr io.Writer = os.Stderr
)

// SlogManager owns the engine's slog logger.
type SlogManager struct {
	logger *slog.Logger
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup initializes logging. With a file, records go to the file and
// warnings are echoed to stderr; without one they go to stdout.
// provider, if non-nil, adds match attributes to every record.
func (m *SlogManager) Setup(file io.Writer, level string, provider ContextProvider) {
	lvl := parseLevel(level)

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers,
			slog.NewTextHandler(file, handlerOptions(lvl)),
			slog.NewTextHandler(osStderr, handlerOptions(max(lvl, slog.LevelWarn))),
		)
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOptions(lvl)))
	}

	var handler slog.Handler = NewMultiHandler(handlers...)
	if provider != nil {
		handler = NewContextHandler(handler, provider)
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}
