package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/internal/store"
)

// BuiltinOperations returns the operations bundled with the engine:
// payload.store, payload.log, and payload.flag.
func BuiltinOperations(st store.Store, logger *slog.Logger) []Operation {
	if logger == nil {
		logger = slog.Default()
	}
	return []Operation{
		&storeOperation{store: st},
		&logOperation{logger: logger},
		&flagOperation{store: st},
	}
}

// --- payload.store ---

type storeOperation struct {
	store store.Store
}

func (o *storeOperation) Name() string { return "payload.store" }

func (o *storeOperation) Description() string {
	return "Persist a validated payload as a document in a named collection"
}

func (o *storeOperation) Args() *constraint.Node {
	return constraint.Object(
		constraint.F("collection", constraint.String(constraint.MinLength(1))),
		constraint.F("document", constraint.Object()),
	)
}

func (o *storeOperation) Execute(ctx context.Context, args map[string]any) (bool, error) {
	collection := args["collection"].(string)
	document, _ := args["document"].(map[string]any)

	doc := &store.Document{
		ID:         uuid.New().String(),
		Collection: collection,
		Body:       document,
		CreatedAt:  time.Now().UTC(),
	}
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

// --- payload.log ---

type logOperation struct {
	logger *slog.Logger
}

func (o *logOperation) Name() string { return "payload.log" }

func (o *logOperation) Description() string {
	return "Emit a structured log entry for a validated payload"
}

func (o *logOperation) Args() *constraint.Node {
	return constraint.Object(
		constraint.F("level", constraint.Enum("debug", "info", "warn", "error")),
		constraint.F("message", constraint.String(constraint.MinLength(1))),
		constraint.Opt("fields", constraint.Object()),
	)
}

func (o *logOperation) Execute(ctx context.Context, args map[string]any) (bool, error) {
	level := args["level"].(string)
	message := args["message"].(string)

	attrs := []any{}
	if fields, ok := args["fields"].(map[string]any); ok {
		for k, v := range fields {
			attrs = append(attrs, slog.Any(k, v))
		}
	}

	switch level {
	case "debug":
		o.logger.DebugContext(ctx, message, attrs...)
	case "warn":
		o.logger.WarnContext(ctx, message, attrs...)
	case "error":
		o.logger.ErrorContext(ctx, message, attrs...)
	default:
		o.logger.InfoContext(ctx, message, attrs...)
	}
	return true, nil
}

// --- payload.flag ---

type flagOperation struct {
	store store.Store
}

func (o *flagOperation) Name() string { return "payload.flag" }

func (o *flagOperation) Description() string {
	return "Raise a review flag for a payload that needs human attention"
}

func (o *flagOperation) Args() *constraint.Node {
	return constraint.Object(
		constraint.F("reason", constraint.String(constraint.MinLength(1))),
		constraint.F("severity", constraint.Enum("low", "medium", "high")),
		constraint.Opt("details", constraint.Object()),
	)
}

func (o *flagOperation) Execute(ctx context.Context, args map[string]any) (bool, error) {
	reason := args["reason"].(string)
	severity := args["severity"].(string)
	details, _ := args["details"].(map[string]any)

	flag := &store.Flag{
		ID:        uuid.New().String(),
		Reason:    reason,
		Severity:  severity,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.SaveFlag(ctx, flag); err != nil {
		return false, err
	}
	return true, nil
}
