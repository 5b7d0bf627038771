package schema

import "fmt"

// Violation is a single, path-qualified failure of a value against a constraint.
type Violation struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Expected string `json:"expected"`
	Received string `json:"received"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (expected %s, got %s)", v.Path, v.Message, v.Expected, v.Received)
}

// Result is the outcome of validating a value against a constraint model.
// A valid result carries the value; an invalid result carries every violation
// found in one pass, ordered by a deterministic pre-order traversal of the
// model, plus the original raw input.
type Result struct {
	Value      any         `json:"value,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
	Raw        any         `json:"-"`
}

// Valid returns true if no violations were collected.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0
}

// AddViolation appends a violation to the result.
func (r *Result) AddViolation(path, message, expected, received string) {
	r.Violations = append(r.Violations, Violation{
		Path: path, Message: message, Expected: expected, Received: received,
	})
}

// Merge appends another result's violations into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// ToError converts the result to a ConformError if invalid, nil if valid.
func (r *Result) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Violations[0].String()
	if len(r.Violations) > 1 {
		msg = fmt.Sprintf("validation failed with %d violations", len(r.Violations))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"violation_count": len(r.Violations),
			"violations":      r.Violations,
		})
}
