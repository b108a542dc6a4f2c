package vexiter

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vexiter-specific helpers.
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

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogPrepare logs a preparation pass.
func (l *Logger) LogPrepare(mode Mode, k, batches, collected int, err error) {
	if err != nil {
		l.Error("prepare failed",
			"mode", mode.String(),
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("prepare completed",
			"mode", mode.String(),
			"k", k,
			"batches", batches,
			"collected", collected,
		)
	}
}

// LogBatch logs one merge-join pass over a candidate batch.
func (l *Logger) LogBatch(batchSize, matched, heapLen int) {
	l.Debug("batch merged",
		"batch_size", batchSize,
		"matched", matched,
		"heap_len", heapLen,
	)
}

// LogRewind logs an iterator rewind.
func (l *Logger) LogRewind(released int) {
	l.Debug("iterator rewound",
		"released", released,
	)
}
