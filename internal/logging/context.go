package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldRunID is the structured logging key for transcription run identifiers.
	FieldRunID = "run_id"
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldChunk is the structured logging key for zero-based chunk indexes.
	FieldChunk = "chunk"
)

type runIDKey struct{}

// WithRunID returns a context carrying id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns logger augmented with the fields carried by ctx.
// A nil logger yields a discarding one.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(FieldRunID, id)
	}
	return logger
}
