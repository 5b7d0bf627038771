package expressions

import "context"

// Engine evaluates expressions against a validated payload.
// Three implementations: GoJQ (field extraction and argument bindings),
// Expr (guard logic), CEL (guard logic via the "cel:" prefix).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
