// Package decision maps fields of a validated payload to an operation
// selection through a finite decision table. Selection is pure: no hidden
// state, no randomness, and an explicit default case covers every value
// outside the known categorical domain.
package decision

import (
	"context"
	"sort"
	"strings"

	"github.com/rendis/conform/internal/expressions"
	"github.com/rendis/conform/pkg/schema"
)

// celPrefix marks guard expressions evaluated with the CEL engine instead of
// the default Expr engine.
const celPrefix = "cel:"

// Binding supplies one operation argument: either a literal value or a jq
// expression evaluated against the validated payload.
type Binding struct {
	Literal any    `json:"literal,omitempty"`
	Expr    string `json:"expr,omitempty"`
}

// CaseSpec is one decision-table row: the operation to dispatch, an optional
// guard, and the argument bindings.
type CaseSpec struct {
	Operation string             `json:"operation"`
	When      string             `json:"when,omitempty"`
	Args      map[string]Binding `json:"args,omitempty"`
}

// TableSpec is the loadable description of a decision table.
type TableSpec struct {
	// Driver is a jq expression extracting the categorical driver value
	// from the validated payload, e.g. ".recommendation".
	Driver string `json:"driver"`
	// Domain is the closed set of driver values the table branches on.
	Domain []string `json:"domain,omitempty"`
	// Cases maps driver values to their rows. A domain value without a
	// case falls through to the default.
	Cases map[string]CaseSpec `json:"cases"`
	// Default is mandatory: an out-of-domain driver value selects it
	// explicitly, never an arbitrary case.
	Default *CaseSpec `json:"default"`
}

// Engines bundles the expression engines a table evaluates with.
type Engines struct {
	JQ   expressions.Engine
	Expr expressions.Engine
	CEL  expressions.Engine
}

// DefaultEngines constructs the standard engine set.
func DefaultEngines() (Engines, error) {
	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return Engines{}, err
	}
	return Engines{
		JQ:   expressions.NewGoJQEngine(),
		Expr: expressions.NewExprEngine(),
		CEL:  celEngine,
	}, nil
}

// Selection is the outcome of a decision: the operation name and its
// constructed arguments.
type Selection struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}

// Table is a decision table compiled from a TableSpec. Immutable after
// construction; safe for concurrent Select calls.
type Table struct {
	spec    TableSpec
	engines Engines
}

// NewTable validates a TableSpec and builds a Table. Construction fails on a
// missing driver, a missing or incomplete default case, a case without an
// operation, or a case keyed outside the declared domain.
func NewTable(spec *TableSpec, engines Engines) (*Table, error) {
	if spec == nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "nil decision table spec")
	}
	if strings.TrimSpace(spec.Driver) == "" {
		return nil, schema.NewError(schema.ErrCodeBuild, "decision table requires a driver expression")
	}
	if spec.Default == nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "decision table requires an explicit default case")
	}
	if spec.Default.Operation == "" {
		return nil, schema.NewError(schema.ErrCodeBuild, "default case requires an operation")
	}
	if engines.JQ == nil || engines.Expr == nil || engines.CEL == nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "decision table requires jq, expr and cel engines")
	}

	domain := make(map[string]struct{}, len(spec.Domain))
	for _, v := range spec.Domain {
		if _, dup := domain[v]; dup {
			return nil, schema.NewErrorf(schema.ErrCodeBuild, "duplicate domain value %q", v)
		}
		domain[v] = struct{}{}
	}

	keys := make([]string, 0, len(spec.Cases))
	for k := range spec.Cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := spec.Cases[k]
		if c.Operation == "" {
			return nil, schema.NewErrorf(schema.ErrCodeBuild, "case %q requires an operation", k)
		}
		if len(spec.Domain) > 0 {
			if _, ok := domain[k]; !ok {
				return nil, schema.NewErrorf(schema.ErrCodeBuild, "case %q is outside the declared domain", k)
			}
		}
	}

	return &Table{spec: *spec, engines: engines}, nil
}

// Select maps a validated payload to an operation selection. It is total
// over the driver's domain: an unknown or non-string driver value yields the
// explicit default case. The same payload always yields the same selection.
func (t *Table) Select(ctx context.Context, payload map[string]any) (*Selection, error) {
	driverVal, err := t.engines.JQ.Evaluate(ctx, t.spec.Driver, payload)
	if err != nil {
		return nil, err
	}

	driver, _ := driverVal.(string)
	c, matched := t.spec.Cases[driver]
	if matched && c.When != "" {
		pass, err := t.guard(ctx, c.When, payload, driver)
		if err != nil {
			return nil, err
		}
		matched = pass
	}
	if !matched {
		c = *t.spec.Default
	}

	args, err := t.bind(ctx, c.Args, payload)
	if err != nil {
		return nil, err
	}

	return &Selection{Operation: c.Operation, Args: args}, nil
}

// guard evaluates a case guard. Expressions with the "cel:" prefix run on
// the CEL engine; everything else runs on Expr. A guard must produce a
// boolean.
func (t *Table) guard(ctx context.Context, expression string, payload map[string]any, driver string) (bool, error) {
	engine := t.engines.Expr
	if strings.HasPrefix(expression, celPrefix) {
		engine = t.engines.CEL
		expression = strings.TrimPrefix(expression, celPrefix)
	}

	data := map[string]any{"payload": payload, "driver": driver}
	out, err := engine.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	pass, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeBuild,
			"guard %q did not produce a boolean", expression)
	}
	return pass, nil
}

// bind constructs operation arguments from the case bindings. Literals take
// precedence; jq expressions are evaluated against the validated payload.
func (t *Table) bind(ctx context.Context, bindings map[string]Binding, payload map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(bindings))
	for name, b := range bindings {
		switch {
		case b.Literal != nil:
			args[name] = b.Literal
		case b.Expr != "":
			v, err := t.engines.JQ.Evaluate(ctx, b.Expr, payload)
			if err != nil {
				return nil, err
			}
			args[name] = v
		default:
			return nil, schema.NewErrorf(schema.ErrCodeBuild,
				"binding %q has neither a literal nor an expression", name)
		}
	}
	return args, nil
}
