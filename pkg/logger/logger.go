// Package logger builds the application's slog loggers: JSON to stdout,
// optionally mirrored to Sentry, with per-call context extraction for
// request-scoped attributes such as the acting principal.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON logger writing to stdout at Info level.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(NewContextHandler(h, extractors...))
}

// NewNope creates a logger that discards everything. Use as the default when
// logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
