// Package logging wraps log/slog with commonpass field names.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with commonpass-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// From wraps l, or returns a NoopLogger when l is nil.
func From(l *slog.Logger) *Logger {
	if l == nil {
		return NoopLogger()
	}
	return &Logger{Logger: l}
}

// New builds a Logger writing to w in the given format ("text" or "json").
func New(w io.Writer, format string, level slog.Level) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parse log level: %w", err)
	}
	return l, nil
}

// WithVersion adds a dataset version field.
func (l *Logger) WithVersion(version string) *Logger {
	return &Logger{Logger: l.Logger.With("version", version)}
}

// WithTier adds a tier field.
func (l *Logger) WithTier(tier string) *Logger {
	return &Logger{Logger: l.Logger.With("tier", tier)}
}

// LogLoad logs a filter load by a checker.
func (l *Logger) LogLoad(ctx context.Context, location, version, tier string, bitSize uint64, hashCount uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "filter load failed",
			"location", location,
			"version", version,
			"tier", tier,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "filter loaded",
		"location", location,
		"version", version,
		"tier", tier,
		"bit_size", bitSize,
		"hash_count", hashCount,
	)
}

// LogAggregate logs the result of reading one source.
func (l *Logger) LogAggregate(ctx context.Context, source string, lines, accepted, malformed int64, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "source aggregation failed",
			"source", source,
			"error", err,
		)
	case malformed > 0:
		l.WarnContext(ctx, "source aggregated with skipped records",
			"source", source,
			"lines", lines,
			"accepted", accepted,
			"malformed", malformed,
		)
	default:
		l.InfoContext(ctx, "source aggregated",
			"source", source,
			"lines", lines,
			"accepted", accepted,
		)
	}
}

// LogTier logs one built tier filter.
func (l *Logger) LogTier(ctx context.Context, tier string, entries int, bitSize uint64, hashCount uint32, checksum uint64) {
	l.DebugContext(ctx, "tier built",
		"tier", tier,
		"entries", entries,
		"bit_size", bitSize,
		"hash_count", hashCount,
		"bits_xxh64", fmt.Sprintf("%016x", checksum),
	)
}

// LogBuild logs a finished dataset build.
func (l *Logger) LogBuild(ctx context.Context, version string, files int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dataset build failed",
			"version", version,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "dataset built",
		"version", version,
		"files", files,
		"elapsed", elapsed,
	)
}
