package validator

import (
	"encoding/json"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/pkg/schema"
)

// DecodeJSON parses a raw candidate payload into an untyped value.
// Malformed input is a decode error, a category distinct from schema
// violations: structural checking never begins, so no violations exist.
func DecodeJSON(raw []byte) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, schema.NewError(schema.ErrCodeDecode, "payload is not valid JSON").WithCause(err)
	}
	return value, nil
}

// ValidateJSON decodes raw JSON and validates it against node. The error
// return carries decode failures only; validation failures are reported in
// the Result as a complete violation list.
func ValidateJSON(node *constraint.Node, raw []byte) (*schema.Result, error) {
	value, err := DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return Validate(node, value), nil
}
