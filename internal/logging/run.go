package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const runIDKey contextKey = "run_id"

// NewRunID returns a short identifier tagging every log entry of one run.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID returns a context carrying id.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run ID in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger, tagged with the run ID in ctx if present.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := current()
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With().Str("run_id", id).Logger()
	}
	return &l
}
