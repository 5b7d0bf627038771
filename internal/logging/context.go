package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	payloadIDKey ctxKey = iota
	operationKey
	dispatchIDKey
)

// WithPayloadID returns a context with the payload ID set.
func WithPayloadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, payloadIDKey, id)
}

// WithOperation returns a context with the operation name set.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey, name)
}

// WithDispatchID returns a context with the dispatch ID set.
func WithDispatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, dispatchIDKey, id)
}

// PayloadID extracts the payload ID from the context, or "" if absent.
func PayloadID(ctx context.Context) string {
	v, _ := ctx.Value(payloadIDKey).(string)
	return v
}

// Operation extracts the operation name from the context, or "" if absent.
func Operation(ctx context.Context) string {
	v, _ := ctx.Value(operationKey).(string)
	return v
}

// DispatchID extracts the dispatch ID from the context, or "" if absent.
func DispatchID(ctx context.Context) string {
	v, _ := ctx.Value(dispatchIDKey).(string)
	return v
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := PayloadID(ctx); id != "" {
		logger = logger.With(slog.String("payload_id", id))
	}
	if op := Operation(ctx); op != "" {
		logger = logger.With(slog.String("operation", op))
	}
	if id := DispatchID(ctx); id != "" {
		logger = logger.With(slog.String("dispatch_id", id))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := PayloadID(ctx); v != "" {
		r.AddAttrs(slog.String("payload_id", v))
	}
	if v := Operation(ctx); v != "" {
		r.AddAttrs(slog.String("operation", v))
	}
	if v := DispatchID(ctx); v != "" {
		r.AddAttrs(slog.String("dispatch_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
