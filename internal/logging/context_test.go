package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, PayloadID(ctx))
	assert.Empty(t, Operation(ctx))
	assert.Empty(t, DispatchID(ctx))

	ctx = WithPayloadID(ctx, "pay-1")
	ctx = WithOperation(ctx, "payload.store")
	ctx = WithDispatchID(ctx, "disp-1")

	assert.Equal(t, "pay-1", PayloadID(ctx))
	assert.Equal(t, "payload.store", Operation(ctx))
	assert.Equal(t, "disp-1", DispatchID(ctx))
}

func TestLogWith_AddsOnlyPresentIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithPayloadID(context.Background(), "pay-1")
	LogWith(ctx, logger).InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pay-1", entry["payload_id"])
	assert.NotContains(t, entry, "operation")
	assert.NotContains(t, entry, "dispatch_id")
}

func TestCorrelationHandler_InjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithPayloadID(context.Background(), "pay-1")
	ctx = WithOperation(ctx, "payload.flag")
	ctx = WithDispatchID(ctx, "disp-1")

	logger.InfoContext(ctx, "processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pay-1", entry["payload_id"])
	assert.Equal(t, "payload.flag", entry["operation"])
	assert.Equal(t, "disp-1", entry["dispatch_id"])
}

func TestCorrelationHandler_EmptyContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "payload_id")
}

func TestCorrelationHandler_WithAttrsPreservesInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))
	logger = logger.With(slog.String("component", "pipeline"))

	ctx := WithPayloadID(context.Background(), "pay-1")
	logger.InfoContext(ctx, "processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "pay-1", entry["payload_id"])
}
