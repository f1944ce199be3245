package seqidx

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with seqidx-specific context.
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

// WithPath adds a file path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithFileIndex adds a file index field to the logger.
func (l *Logger) WithFileIndex(fileIndex uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("file_index", fileIndex),
	}
}

// LogOpen logs an index open.
func (l *Logger) LogOpen(ctx context.Context, path string, readOnly bool, files int) {
	l.InfoContext(ctx, "index opened",
		"path", path,
		"read_only", readOnly,
		"files", files,
	)
}

// LogIndexFile logs an index build for one file.
func (l *Logger) LogIndexFile(ctx context.Context, path string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index file failed",
			"path", path,
			"records", records,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index file completed",
			"path", path,
			"records", records,
		)
	}
}

// LogSkippedRecord logs a record dropped during indexing because its header
// did not yield a usable id.
func (l *Logger) LogSkippedRecord(ctx context.Context, path string, offset int64, reason string) {
	l.WarnContext(ctx, "record skipped",
		"path", path,
		"offset", offset,
		"reason", reason,
	)
}

// LogGet logs a record fetch.
func (l *Logger) LogGet(ctx context.Context, id string, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "get failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "get completed",
			"id", id,
			"found", found,
		)
	}
}

// LogVerify logs a verification pass.
func (l *Logger) LogVerify(ctx context.Context, files int, records int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "verify failed",
			"files", files,
			"records", records,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "verify completed",
			"files", files,
			"records", records,
		)
	}
}

// LogDump logs a dump operation.
func (l *Logger) LogDump(ctx context.Context, entries uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dump failed",
			"entries", entries,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dump completed",
			"entries", entries,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, entries uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"entries", entries,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"entries", entries,
		)
	}
}
