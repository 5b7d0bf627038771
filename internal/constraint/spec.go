package constraint

import (
	"encoding/json"

	"github.com/rendis/conform/pkg/schema"
)

// NodeSpec is the JSON description of a constraint model node. It covers
// exactly the model's own vocabulary so payload models and operation argument
// models can be loaded from configuration; it is not a general schema language.
type NodeSpec struct {
	Kind string `json:"kind"`

	MinLength *int `json:"min_length,omitempty"`

	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Integer bool     `json:"integer,omitempty"`

	Values []string `json:"values,omitempty"`

	Fields []FieldSpec `json:"fields,omitempty"`
	Closed bool        `json:"closed,omitempty"`

	Element  *NodeSpec `json:"element,omitempty"`
	MinItems *int      `json:"min_items,omitempty"`

	Inner *NodeSpec `json:"inner,omitempty"`
}

// FieldSpec describes one declared object field.
type FieldSpec struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Node     NodeSpec `json:"node"`
}

// Parse decodes a JSON node spec into a constraint model. Unlike the
// programmatic builders, malformed specs are configuration data errors and
// are returned, not panicked.
func Parse(raw []byte) (*Node, error) {
	var spec NodeSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "malformed constraint spec").WithCause(err)
	}
	return FromSpec(&spec)
}

// FromSpec builds a constraint model from a decoded spec.
func FromSpec(spec *NodeSpec) (*Node, error) {
	if spec == nil {
		return nil, schema.NewError(schema.ErrCodeBuild, "nil constraint spec")
	}

	switch Kind(spec.Kind) {
	case KindString:
		n := &Node{kind: KindString}
		if spec.MinLength != nil {
			if *spec.MinLength < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeBuild, "negative minLength %d", *spec.MinLength)
			}
			n.minLength = *spec.MinLength
		}
		return n, nil

	case KindNumber:
		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return nil, schema.NewErrorf(schema.ErrCodeBuild, "number min %g > max %g", *spec.Min, *spec.Max)
		}
		return &Node{kind: KindNumber, min: spec.Min, max: spec.Max, integer: spec.Integer}, nil

	case KindBoolean:
		return &Node{kind: KindBoolean}, nil

	case KindEnum:
		if len(spec.Values) == 0 {
			return nil, schema.NewError(schema.ErrCodeBuild, "enum requires at least one value")
		}
		seen := make(map[string]struct{}, len(spec.Values))
		for _, v := range spec.Values {
			if _, dup := seen[v]; dup {
				return nil, schema.NewErrorf(schema.ErrCodeBuild, "duplicate enum value %q", v)
			}
			seen[v] = struct{}{}
		}
		vals := make([]string, len(spec.Values))
		copy(vals, spec.Values)
		return &Node{kind: KindEnum, values: vals}, nil

	case KindObject:
		fields := make([]Field, 0, len(spec.Fields))
		seen := make(map[string]struct{}, len(spec.Fields))
		for _, fs := range spec.Fields {
			if fs.Name == "" {
				return nil, schema.NewError(schema.ErrCodeBuild, "object field name is empty")
			}
			if _, dup := seen[fs.Name]; dup {
				return nil, schema.NewErrorf(schema.ErrCodeBuild, "duplicate object field %q", fs.Name)
			}
			seen[fs.Name] = struct{}{}
			child, err := FromSpec(&fs.Node)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: fs.Name, Node: child, Required: fs.Required})
		}
		return &Node{kind: KindObject, fields: fields, closed: spec.Closed}, nil

	case KindArray:
		if spec.Element == nil {
			return nil, schema.NewError(schema.ErrCodeBuild, "array spec requires an element")
		}
		elem, err := FromSpec(spec.Element)
		if err != nil {
			return nil, err
		}
		n := &Node{kind: KindArray, elem: elem}
		if spec.MinItems != nil {
			if *spec.MinItems < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeBuild, "negative minItems %d", *spec.MinItems)
			}
			n.minItems = *spec.MinItems
		}
		return n, nil

	case KindOptional:
		if spec.Inner == nil {
			return nil, schema.NewError(schema.ErrCodeBuild, "optional spec requires an inner node")
		}
		inner, err := FromSpec(spec.Inner)
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindOptional, inner: inner}, nil
	}

	return nil, schema.NewErrorf(schema.ErrCodeBuild, "unknown constraint kind %q", spec.Kind)
}
