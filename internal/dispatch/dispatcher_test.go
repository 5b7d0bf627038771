package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/conform/internal/store"
	"github.com/rendis/conform/pkg/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureRecorder collects dispatch records in memory.
type captureRecorder struct {
	mu      sync.Mutex
	records []*store.DispatchRecord
	err     error
}

func (c *captureRecorder) RecordDispatch(_ context.Context, rec *store.DispatchRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, rec)
	return nil
}

func newTestDispatcher(t *testing.T, ops ...Operation) (*Dispatcher, *captureRecorder) {
	t.Helper()
	reg := NewRegistry()
	for _, op := range ops {
		require.NoError(t, reg.Register(op))
	}
	rec := &captureRecorder{}
	return NewDispatcher(reg, testLogger(), rec), rec
}

func TestDispatch_Success(t *testing.T) {
	op := newStubOperation("test.op")
	d, rec := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})

	assert.Equal(t, schema.StatusDispatched, result.Status)
	assert.Equal(t, "test.op", result.Operation)
	assert.True(t, result.ExecutorOK)
	assert.Equal(t, 1, op.callCount())
	assert.Equal(t, "hello", op.lastArgs["message"])

	require.Len(t, rec.records, 1)
	assert.Equal(t, "dispatched", rec.records[0].Status)
}

func TestDispatch_ExecutorBusinessFailure(t *testing.T) {
	op := newStubOperation("test.op")
	op.ok = false
	d, _ := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})

	// A false business outcome is still a completed dispatch.
	assert.Equal(t, schema.StatusDispatched, result.Status)
	assert.False(t, result.ExecutorOK)
}

func TestDispatch_UnknownOperation(t *testing.T) {
	d, rec := newTestDispatcher(t)

	result := d.Dispatch(context.Background(), "nope", map[string]any{})

	assert.Equal(t, schema.StatusUnknownOperation, result.Status)
	assert.Equal(t, "nope", result.Operation)
	require.Len(t, rec.records, 1)
	assert.Equal(t, "unknown_operation", rec.records[0].Status)
}

func TestDispatch_InvalidArgumentsNeverReachExecutor(t *testing.T) {
	op := newStubOperation("test.op")
	d, rec := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": ""})

	assert.Equal(t, schema.StatusArgumentInvalid, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "$.message", result.Violations[0].Path)

	// The executor was never invoked.
	assert.Equal(t, 0, op.callCount())

	require.Len(t, rec.records, 1)
	assert.Equal(t, "argument_invalid", rec.records[0].Status)
	assert.NotEmpty(t, rec.records[0].Violations)
}

func TestDispatch_MissingArgumentsNeverReachExecutor(t *testing.T) {
	op := newStubOperation("test.op")
	d, _ := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", nil)

	assert.Equal(t, schema.StatusArgumentInvalid, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "missing required field", result.Violations[0].Message)
	assert.Equal(t, 0, op.callCount())
}

func TestDispatch_ArgumentValidationIsExhaustive(t *testing.T) {
	op := newStubOperation("test.op")
	d, _ := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op",
		map[string]any{"message": "", "extra": "ignored"})

	// Open-world arguments: the undeclared field is not a violation.
	assert.Equal(t, schema.StatusArgumentInvalid, result.Status)
	assert.Len(t, result.Violations, 1)
}

func TestDispatch_ExecutorError(t *testing.T) {
	op := newStubOperation("test.op")
	op.err = errors.New("downstream unavailable")
	d, rec := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})

	assert.Equal(t, schema.StatusExecutionFailed, result.Status)
	assert.Contains(t, result.Message, "downstream unavailable")
	require.Len(t, rec.records, 1)
	assert.Equal(t, "execution_failed", rec.records[0].Status)
}

func TestDispatch_ExecutorPanicIsRecovered(t *testing.T) {
	op := newStubOperation("test.op")
	op.panic = "boom"
	d, _ := newTestDispatcher(t, op)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})

	assert.Equal(t, schema.StatusExecutionFailed, result.Status)
	assert.Contains(t, result.Message, "executor panic: boom")
}

func TestDispatch_RecorderFailureDoesNotAffectResult(t *testing.T) {
	op := newStubOperation("test.op")
	reg := NewRegistry()
	require.NoError(t, reg.Register(op))

	rec := &captureRecorder{err: errors.New("db down")}
	d := NewDispatcher(reg, testLogger(), rec)

	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})
	assert.Equal(t, schema.StatusDispatched, result.Status)
}

func TestDispatch_NilRecorder(t *testing.T) {
	op := newStubOperation("test.op")
	reg := NewRegistry()
	require.NoError(t, reg.Register(op))

	d := NewDispatcher(reg, testLogger(), nil)
	result := d.Dispatch(context.Background(), "test.op", map[string]any{"message": "hello"})
	assert.Equal(t, schema.StatusDispatched, result.Status)
}

func TestDispatch_IndependentAttempts(t *testing.T) {
	good := newStubOperation("good.op")
	bad := newStubOperation("bad.op")
	bad.panic = "boom"
	d, _ := newTestDispatcher(t, good, bad)

	// A failing attempt does not poison later ones.
	first := d.Dispatch(context.Background(), "bad.op", map[string]any{"message": "x"})
	assert.Equal(t, schema.StatusExecutionFailed, first.Status)

	second := d.Dispatch(context.Background(), "good.op", map[string]any{"message": "x"})
	assert.Equal(t, schema.StatusDispatched, second.Status)
	assert.True(t, second.ExecutorOK)
}
