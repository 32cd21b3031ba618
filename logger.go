package geocache

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/geocache/cachefile"
)

// Logger wraps slog.Logger with geocache-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithLevelIndex adds the node coordinates to the logger.
func (l *Logger) WithLevelIndex(level, index int32) *Logger {
	return &Logger{
		Logger: l.Logger.With("level", level, "index", index),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogWrite logs a snapshot write.
func (l *Logger) LogWrite(ctx context.Context, id NodeID, md *cachefile.Metadata, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"node", id.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "write completed",
		"node", id.String(),
		"features", md.NumFeatures,
		"feature_sets", md.NumFeatureSets,
		"terminal", md.Terminal,
	)
}

// LogOpen logs a node open.
func (l *Logger) LogOpen(ctx context.Context, id NodeID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"node", id.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "open completed",
		"node", id.String(),
	)
}

// LogPublish logs an upload to the remote store.
func (l *Logger) LogPublish(ctx context.Context, key string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"key", key,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "publish completed",
		"key", key,
		"bytes", bytes,
	)
}

// LogFetch logs a download from the remote store.
func (l *Logger) LogFetch(ctx context.Context, key string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch failed",
			"key", key,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "fetch completed",
		"key", key,
		"bytes", bytes,
	)
}
