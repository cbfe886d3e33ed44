// Package logging is the structured logger used by every layer of the
// service. Handlers, middleware and stores take a Logger rather than calling
// log/slog directly so tests can capture or silence output.
package logging

import "context"

// Logger is a context-aware, key/value structured logger:
//
//	logger.Info(ctx, "scene created", "scene_id", id, "user_id", userID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
