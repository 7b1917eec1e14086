package logger

import (
	"context"
	"log/slog"
)

// Request-scoped loggers ride the context so trace and actor fields stick
// to every line a handler writes.

type contextKey struct{}

// With derives a child logger carrying fields and stores it on the context.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).With(fields...))
}

// From returns the request-scoped logger, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
