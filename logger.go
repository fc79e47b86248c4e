package colvec

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colvec-specific helpers so log lines use
// consistent field names.
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

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LogListGrowth logs a list child reservation.
func (l *Logger) LogListGrowth(column string, row, oldCapacity, newCapacity int, err error) {
	if err != nil {
		l.Error("list child reservation failed",
			"column", column,
			"row", row,
			"capacity", oldCapacity,
			"requested", newCapacity,
			"error", err,
		)
		return
	}
	l.Debug("list child grown",
		"column", column,
		"row", row,
		"capacity", oldCapacity,
		"new_capacity", newCapacity,
	)
}

// LogFlush logs a chunk handed to a sink.
func (l *Logger) LogFlush(ctx context.Context, rows, columns int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "chunk flush failed",
			"rows", rows,
			"columns", columns,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "chunk flushed",
		"rows", rows,
		"columns", columns,
	)
}
