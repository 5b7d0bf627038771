package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolation_String(t *testing.T) {
	v := Violation{
		Path:     "$.score",
		Message:  "above maximum 100",
		Expected: "number (0..100)",
		Received: "150",
	}
	assert.Equal(t, "$.score: above maximum 100 (expected number (0..100), got 150)", v.String())
}

func TestResult_Valid(t *testing.T) {
	r := &Result{}
	assert.True(t, r.Valid())

	r.AddViolation("$.id", "missing required field", "string", "absent")
	assert.False(t, r.Valid())
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "$.id", r.Violations[0].Path)
}

func TestResult_Merge(t *testing.T) {
	a := &Result{}
	a.AddViolation("$.a", "wrong type", "string", "1")

	b := &Result{}
	b.AddViolation("$.b", "wrong type", "boolean", "null")

	a.Merge(b)
	require.Len(t, a.Violations, 2)
	assert.Equal(t, "$.b", a.Violations[1].Path)

	a.Merge(nil)
	assert.Len(t, a.Violations, 2)
}

func TestResult_ToError(t *testing.T) {
	r := &Result{}
	assert.NoError(t, r.ToError())

	r.AddViolation("$.id", "missing required field", "string", "absent")
	err := r.ToError()
	require.Error(t, err)

	var cErr *ConformError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, ErrCodeValidation, cErr.Code)
	assert.Contains(t, err.Error(), "$.id")

	r.AddViolation("$.score", "above maximum 100", "number", "150")
	err = r.ToError()
	assert.Contains(t, err.Error(), "2 violations")
}

func TestConformError_Format(t *testing.T) {
	err := NewError(ErrCodeBuild, "enum requires at least one value")
	assert.Equal(t, "[BUILD_ERROR] enum requires at least one value", err.Error())

	withOp := NewErrorf(ErrCodeExecution, "executor panic: %v", "boom").WithOperation("payload.store")
	assert.Equal(t, "[EXECUTION_ERROR] operation payload.store: executor panic: boom", withOp.Error())
}

func TestConformError_Unwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewError(ErrCodeStore, "save flag").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestDispatchResult_Constructors(t *testing.T) {
	d := Dispatched("payload.store", true)
	assert.Equal(t, StatusDispatched, d.Status)
	assert.True(t, d.ExecutorOK)

	u := UnknownOperation("nope")
	assert.Equal(t, StatusUnknownOperation, u.Status)
	assert.Equal(t, "nope", u.Operation)

	violations := []Violation{{Path: "$.message"}}
	a := ArgumentInvalid("payload.log", violations)
	assert.Equal(t, StatusArgumentInvalid, a.Status)
	assert.Equal(t, violations, a.Violations)

	e := ExecutionFailed("payload.flag", "executor panic: boom")
	assert.Equal(t, StatusExecutionFailed, e.Status)
	assert.Equal(t, "executor panic: boom", e.Message)
}
