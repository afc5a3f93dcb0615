package util

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with field names used by the calculations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil,
// a text handler writing to stderr is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithCalculation adds the calculation type to the logger.
func (l *Logger) WithCalculation(name string) *Logger {
	return &Logger{Logger: l.Logger.With("calculation", name)}
}

// WithStep adds the dispatcher step and routine to the logger.
func (l *Logger) WithStep(step, routine int) *Logger {
	return &Logger{Logger: l.Logger.With("step", step, "routine", routine)}
}

// LogRun logs the end of a calculation.
func (l *Logger) LogRun(ctx context.Context, path string, start time.Time, err error) {
	if err != nil {
		l.ErrorContext(ctx, "calculation failed",
			"file", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "calculation completed",
		"file", path,
		"duration", time.Since(start),
	)
}
