// Package constraint defines the declarative model of allowed value shapes.
// A model is an immutable tree built once at startup and shared read-only
// across validations. Construction failures are programmer errors and panic
// with a BUILD_ERROR, distinct from payload validation results.
package constraint

import (
	"fmt"
	"strings"

	"github.com/rendis/conform/pkg/schema"
)

// Kind identifies the shape a Node constrains.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindEnum     Kind = "enum"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindOptional Kind = "optional"
)

// Node is one element of a constraint model. Nodes are immutable after
// construction; every leaf is independently checkable without sibling context.
type Node struct {
	kind Kind

	minLength int

	min     *float64
	max     *float64
	integer bool

	values []string

	fields []Field
	closed bool

	elem     *Node
	minItems int

	inner *Node
}

// Field is one declared object field. Declaration order is preserved so
// violation ordering is reproducible; it is irrelevant to validation itself.
type Field struct {
	Name     string
	Node     *Node
	Required bool
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.kind }

// MinLength returns the minimum length bound for a string node.
func (n *Node) MinLength() int { return n.minLength }

// Min returns the lower bound for a number node, or nil if unbounded.
func (n *Node) Min() *float64 { return n.min }

// Max returns the upper bound for a number node, or nil if unbounded.
func (n *Node) Max() *float64 { return n.max }

// IntegerOnly reports whether a number node rejects fractional values.
func (n *Node) IntegerOnly() bool { return n.integer }

// Values returns the allowed values of an enum node in declaration order.
func (n *Node) Values() []string {
	out := make([]string, len(n.values))
	copy(out, n.values)
	return out
}

// Fields returns the declared fields of an object node in declaration order.
func (n *Node) Fields() []Field {
	out := make([]Field, len(n.fields))
	copy(out, n.fields)
	return out
}

// Closed reports whether an object node rejects undeclared fields.
// Open objects (the default) ignore them.
func (n *Node) Closed() bool { return n.closed }

// Element returns the element node of an array node.
func (n *Node) Element() *Node { return n.elem }

// MinItems returns the minimum cardinality bound for an array node.
func (n *Node) MinItems() int { return n.minItems }

// Inner returns the wrapped node of an optional node.
func (n *Node) Inner() *Node { return n.inner }

// Describe renders a human-readable constraint summary suitable for
// diagnostics, e.g. "string (minLength 1)" or "one of [approve, reject]".
func (n *Node) Describe() string {
	switch n.kind {
	case KindString:
		if n.minLength > 0 {
			return fmt.Sprintf("string (minLength %d)", n.minLength)
		}
		return "string"
	case KindNumber:
		base := "number"
		if n.integer {
			base = "integer"
		}
		switch {
		case n.min != nil && n.max != nil:
			return fmt.Sprintf("%s (%s..%s)", base, trimFloat(*n.min), trimFloat(*n.max))
		case n.min != nil:
			return fmt.Sprintf("%s (>= %s)", base, trimFloat(*n.min))
		case n.max != nil:
			return fmt.Sprintf("%s (<= %s)", base, trimFloat(*n.max))
		}
		return base
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return fmt.Sprintf("one of [%s]", strings.Join(n.values, ", "))
	case KindObject:
		return "object"
	case KindArray:
		if n.minItems > 0 {
			return fmt.Sprintf("array (minItems %d)", n.minItems)
		}
		return "array"
	case KindOptional:
		return "optional " + n.inner.Describe()
	}
	return string(n.kind)
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// StringOption configures a string node.
type StringOption func(*Node)

// MinLength sets the minimum length bound. Panics if n is negative.
func MinLength(n int) StringOption {
	return func(node *Node) {
		if n < 0 {
			panic(schema.NewErrorf(schema.ErrCodeBuild, "negative minLength %d", n))
		}
		node.minLength = n
	}
}

// String builds a string constraint.
func String(opts ...StringOption) *Node {
	n := &Node{kind: KindString}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NumberOption configures a number node.
type NumberOption func(*Node)

// Min sets the inclusive lower bound.
func Min(v float64) NumberOption {
	return func(node *Node) { node.min = &v }
}

// Max sets the inclusive upper bound.
func Max(v float64) NumberOption {
	return func(node *Node) { node.max = &v }
}

// Integer rejects fractional values.
func Integer() NumberOption {
	return func(node *Node) { node.integer = true }
}

// Number builds a number constraint. Panics if min > max.
func Number(opts ...NumberOption) *Node {
	n := &Node{kind: KindNumber}
	for _, opt := range opts {
		opt(n)
	}
	if n.min != nil && n.max != nil && *n.min > *n.max {
		panic(schema.NewErrorf(schema.ErrCodeBuild, "number min %g > max %g", *n.min, *n.max))
	}
	return n
}

// Bool builds a boolean constraint.
func Bool() *Node {
	return &Node{kind: KindBoolean}
}

// Enum builds a closed ordered set of allowed string tags.
// Panics on an empty set or duplicate values.
func Enum(values ...string) *Node {
	if len(values) == 0 {
		panic(schema.NewError(schema.ErrCodeBuild, "enum requires at least one value"))
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			panic(schema.NewErrorf(schema.ErrCodeBuild, "duplicate enum value %q", v))
		}
		seen[v] = struct{}{}
	}
	vals := make([]string, len(values))
	copy(vals, values)
	return &Node{kind: KindEnum, values: vals}
}

// F declares a required object field.
func F(name string, node *Node) Field {
	return Field{Name: name, Node: node, Required: true}
}

// Opt declares an optional object field.
func Opt(name string, node *Node) Field {
	return Field{Name: name, Node: node, Required: false}
}

// Object builds an open object constraint: undeclared fields are ignored.
// Panics on empty or duplicate field names or nil field nodes.
func Object(fields ...Field) *Node {
	return buildObject(fields, false)
}

// ClosedObject builds an object constraint that rejects undeclared fields.
func ClosedObject(fields ...Field) *Node {
	return buildObject(fields, true)
}

func buildObject(fields []Field, closed bool) *Node {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			panic(schema.NewError(schema.ErrCodeBuild, "object field name is empty"))
		}
		if f.Node == nil {
			panic(schema.NewErrorf(schema.ErrCodeBuild, "object field %q has nil node", f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			panic(schema.NewErrorf(schema.ErrCodeBuild, "duplicate object field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return &Node{kind: KindObject, fields: fs, closed: closed}
}

// ArrayOption configures an array node.
type ArrayOption func(*Node)

// MinItems sets the minimum cardinality bound. Panics if n is negative.
func MinItems(n int) ArrayOption {
	return func(node *Node) {
		if n < 0 {
			panic(schema.NewErrorf(schema.ErrCodeBuild, "negative minItems %d", n))
		}
		node.minItems = n
	}
}

// Array builds an array constraint over an element node. Panics on nil element.
func Array(elem *Node, opts ...ArrayOption) *Node {
	if elem == nil {
		panic(schema.NewError(schema.ErrCodeBuild, "array element node is nil"))
	}
	n := &Node{kind: KindArray, elem: elem}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Optional wraps a node to permit absence of an object field. A present
// value, including JSON null, is validated against the inner node.
// Panics on nil inner node.
func Optional(inner *Node) *Node {
	if inner == nil {
		panic(schema.NewError(schema.ErrCodeBuild, "optional inner node is nil"))
	}
	return &Node{kind: KindOptional, inner: inner}
}
