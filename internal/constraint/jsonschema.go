package constraint

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Export converts a constraint model into a JSON Schema (Draft 2020-12)
// description for transmission to an external producer. The conversion is
// one-way and pure; it carries no validation semantics of its own.
func Export(n *Node) *jsonschema.Schema {
	s := exportNode(n)
	s.Version = "https://json-schema.org/draft/2020-12/schema"
	return s
}

// ExportJSON renders the exported schema as indented JSON.
func ExportJSON(n *Node) ([]byte, error) {
	return json.MarshalIndent(Export(n), "", "  ")
}

func exportNode(n *Node) *jsonschema.Schema {
	switch n.kind {
	case KindString:
		s := &jsonschema.Schema{Type: "string"}
		if n.minLength > 0 {
			ml := uint64(n.minLength)
			s.MinLength = &ml
		}
		return s

	case KindNumber:
		s := &jsonschema.Schema{Type: "number"}
		if n.integer {
			s.Type = "integer"
		}
		if n.min != nil {
			s.Minimum = json.Number(trimFloat(*n.min))
		}
		if n.max != nil {
			s.Maximum = json.Number(trimFloat(*n.max))
		}
		return s

	case KindBoolean:
		return &jsonschema.Schema{Type: "boolean"}

	case KindEnum:
		s := &jsonschema.Schema{Type: "string"}
		s.Enum = make([]any, 0, len(n.values))
		for _, v := range n.values {
			s.Enum = append(s.Enum, v)
		}
		return s

	case KindObject:
		s := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		for _, f := range n.fields {
			child := f.Node
			optional := !f.Required
			if child.kind == KindOptional {
				child = child.inner
				optional = true
			}
			s.Properties.Set(f.Name, exportNode(child))
			if !optional {
				s.Required = append(s.Required, f.Name)
			}
		}
		if n.closed {
			s.AdditionalProperties = jsonschema.FalseSchema
		}
		return s

	case KindArray:
		s := &jsonschema.Schema{
			Type:  "array",
			Items: exportNode(n.elem),
		}
		if n.minItems > 0 {
			mi := uint64(n.minItems)
			s.MinItems = &mi
		}
		return s

	case KindOptional:
		// Optionality is a property of the enclosing object field;
		// standalone export falls through to the inner shape.
		return exportNode(n.inner)
	}

	return &jsonschema.Schema{}
}
