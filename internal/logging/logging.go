// Package logging provides the application logger, a thin wrapper over
// log/slog so call sites use key-value pairs everywhere.
package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog with the handler the service uses everywhere.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing text to stdout at the given level.
// Level strings follow slog: debug, info, warn, error.
func NewLogger(level string) *Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(handler)}
}
