package hyperspace

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hyperspace-specific helpers so partitioning
// and optimization runs log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs text
// to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable lines to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithRank tags the logger with a worker rank.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{Logger: l.Logger.With("rank", rank)}
}

// LogWarning logs a bisection warning. Warnings never abort partitioning.
func (l *Logger) LogWarning(ctx context.Context, w Warning) {
	l.WarnContext(ctx, w.Error(), "dimension", displayName(w.DimensionName()))
}

// LogPartition logs the outcome of building a partition tree.
func (l *Logger) LogPartition(ctx context.Context, depth, leaves, warnings int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition failed",
			"depth", depth,
			"error", err,
		)

		return
	}

	l.InfoContext(ctx, "partition completed",
		"depth", depth,
		"leaves", leaves,
		"warnings", warnings,
	)
}

// LogEvaluation logs one objective evaluation.
func (l *Logger) LogEvaluation(ctx context.Context, phase string, iteration int, value float64, err error) {
	if err != nil {
		l.DebugContext(ctx, "evaluation failed",
			"phase", phase,
			"iteration", iteration,
			"error", err,
		)

		return
	}

	l.DebugContext(ctx, "evaluation completed",
		"phase", phase,
		"iteration", iteration,
		"value", value,
	)
}
