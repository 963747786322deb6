package electrolytes

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with electrolytes-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithName adds a constituent name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(name string, err error) {
	if err != nil {
		l.Error("add failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"name", name,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(name string, err error) {
	if err != nil {
		l.Error("remove failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Debug("remove completed",
			"name", name,
		)
	}
}

// LogFlush logs an overlay flush.
func (l *Logger) LogFlush(path string, err error) {
	if err != nil {
		l.Error("overlay flush failed",
			"path", path,
			"error", err,
		)
	} else {
		l.Debug("overlay flushed",
			"path", path,
		)
	}
}
