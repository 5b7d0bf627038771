// Package validator checks untyped values against a constraint model,
// collecting every violation in one pass. Exhaustiveness is a hard contract:
// a caller building retry feedback must see every defect, never just the
// first.
package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/pkg/schema"
)

// rootPath is the path prefix for the payload root.
const rootPath = "$"

// Validate checks value against node and returns a Result. Violations are
// ordered by a deterministic pre-order traversal of the model: object fields
// in declaration order, array elements by ascending index. A valid result
// carries the value through unchanged; undeclared fields of open objects are
// ignored and preserved.
func Validate(node *constraint.Node, value any) *schema.Result {
	res := &schema.Result{Raw: value}
	walk(node, value, rootPath, res)
	if res.Valid() {
		res.Value = value
	}
	return res
}

func walk(node *constraint.Node, value any, path string, res *schema.Result) {
	switch node.Kind() {
	case constraint.KindOptional:
		// Absence is handled at the enclosing object; a present value,
		// including null, must satisfy the inner node.
		walk(node.Inner(), value, path, res)

	case constraint.KindString:
		s, ok := value.(string)
		if !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
			return
		}
		if n := utf8.RuneCountInString(s); n < node.MinLength() {
			res.AddViolation(path,
				fmt.Sprintf("too short: length %d is below minimum %d", n, node.MinLength()),
				node.Describe(), summarize(value))
		}

	case constraint.KindNumber:
		f, ok := toNumber(value)
		if !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
			return
		}
		// Each unmet bound is its own violation; no short-circuiting.
		if node.IntegerOnly() && math.Trunc(f) != f {
			res.AddViolation(path, "not an integer", node.Describe(), summarize(value))
		}
		if min := node.Min(); min != nil && f < *min {
			res.AddViolation(path,
				fmt.Sprintf("below minimum %g", *min), node.Describe(), summarize(value))
		}
		if max := node.Max(); max != nil && f > *max {
			res.AddViolation(path,
				fmt.Sprintf("above maximum %g", *max), node.Describe(), summarize(value))
		}

	case constraint.KindBoolean:
		if _, ok := value.(bool); !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
		}

	case constraint.KindEnum:
		s, ok := value.(string)
		if !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
			return
		}
		for _, allowed := range node.Values() {
			if s == allowed {
				return
			}
		}
		res.AddViolation(path, "not an allowed value", node.Describe(), summarize(value))

	case constraint.KindObject:
		m, ok := value.(map[string]any)
		if !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
			return
		}
		for _, f := range node.Fields() {
			fieldPath := joinField(path, f.Name)
			v, present := m[f.Name]
			if !present {
				if f.Required && f.Node.Kind() != constraint.KindOptional {
					res.AddViolation(fieldPath, "missing required field", f.Node.Describe(), "absent")
				}
				continue
			}
			walk(f.Node, v, fieldPath, res)
		}
		if node.Closed() {
			declared := make(map[string]struct{}, len(node.Fields()))
			for _, f := range node.Fields() {
				declared[f.Name] = struct{}{}
			}
			var extras []string
			for k := range m {
				if _, ok := declared[k]; !ok {
					extras = append(extras, k)
				}
			}
			sort.Strings(extras)
			for _, k := range extras {
				res.AddViolation(joinField(path, k), "undeclared field", "no extra fields", summarize(m[k]))
			}
		}

	case constraint.KindArray:
		arr, ok := value.([]any)
		if !ok {
			res.AddViolation(path, "wrong type", node.Describe(), summarize(value))
			return
		}
		if len(arr) < node.MinItems() {
			// One violation for the whole array, not one per missing element.
			res.AddViolation(path,
				fmt.Sprintf("too few items: %d is below minimum %d", len(arr), node.MinItems()),
				node.Describe(), summarize(value))
		}
		for i, item := range arr {
			walk(node.Element(), item, joinIndex(path, i), res)
		}
	}
}

func joinField(path, name string) string {
	return path + "." + name
}

func joinIndex(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// toNumber accepts the numeric representations that reach the validator:
// float64 from JSON decoding, plus int variants and json.Number from
// programmatic callers.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// summarizeLimit bounds the rendered length of offending values in
// diagnostics.
const summarizeLimit = 60

// summarize renders a compact, truncated representation of a value for use
// in violation messages and retry feedback.
func summarize(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(b)
	if utf8.RuneCountInString(s) > summarizeLimit {
		runes := []rune(s)
		s = string(runes[:summarizeLimit]) + "..."
	}
	return s
}
