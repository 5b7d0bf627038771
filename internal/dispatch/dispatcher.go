package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/conform/internal/logging"
	"github.com/rendis/conform/internal/store"
	"github.com/rendis/conform/internal/validator"
	"github.com/rendis/conform/pkg/schema"
)

// Recorder persists dispatch outcomes for audit. A nil Recorder disables
// recording; recording failures are logged and never affect the result.
type Recorder interface {
	RecordDispatch(ctx context.Context, rec *store.DispatchRecord) error
}

// Dispatcher validates operation arguments and invokes the corresponding
// executor. Every failure mode is classified by cause and returned as a
// typed DispatchResult, never raised.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		recorder: recorder,
	}
}

// Dispatch looks up name, validates rawArgs against the operation's argument
// model, and invokes the executor only if every argument constraint holds.
// The executor receives the validated, narrowed arguments, never the raw
// input. Executor panics are recovered and reported as execution failures.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, rawArgs map[string]any) schema.DispatchResult {
	dispatchID := uuid.New().String()
	ctx = logging.WithDispatchID(ctx, dispatchID)
	ctx = logging.WithOperation(ctx, name)
	log := logging.LogWith(ctx, d.logger)

	op, err := d.registry.Get(name)
	if err != nil {
		log.WarnContext(ctx, "dispatch to unknown operation")
		result := schema.UnknownOperation(name)
		d.record(ctx, dispatchID, result)
		return result
	}

	res := validator.Validate(op.Args(), anyMap(rawArgs))
	if !res.Valid() {
		log.WarnContext(ctx, "operation arguments invalid",
			slog.Int("violations", len(res.Violations)))
		result := schema.ArgumentInvalid(name, res.Violations)
		d.record(ctx, dispatchID, result)
		return result
	}

	args, _ := res.Value.(map[string]any)
	ok, execErr := runExecutor(ctx, op, args)

	var result schema.DispatchResult
	if execErr != nil {
		log.ErrorContext(ctx, "executor failed", slog.String("error", execErr.Error()))
		result = schema.ExecutionFailed(name, execErr.Error())
	} else {
		log.InfoContext(ctx, "operation dispatched", slog.Bool("executor_ok", ok))
		result = schema.Dispatched(name, ok)
	}
	d.record(ctx, dispatchID, result)
	return result
}

// runExecutor invokes the operation, converting panics into execution errors
// so failures never propagate uncaught out of the dispatch loop.
func runExecutor(ctx context.Context, op Operation, args map[string]any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = schema.NewErrorf(schema.ErrCodeExecution, "executor panic: %v", r).
				WithOperation(op.Name())
		}
	}()
	ok, err = op.Execute(ctx, args)
	if err != nil && !isConformError(err) {
		err = schema.NewError(schema.ErrCodeExecution, err.Error()).
			WithOperation(op.Name()).WithCause(err)
	}
	return ok, err
}

func isConformError(err error) bool {
	_, ok := err.(*schema.ConformError)
	return ok
}

func (d *Dispatcher) record(ctx context.Context, dispatchID string, result schema.DispatchResult) {
	if d.recorder == nil {
		return
	}

	rec := &store.DispatchRecord{
		ID:         dispatchID,
		Operation:  result.Operation,
		Status:     string(result.Status),
		ExecutorOK: result.ExecutorOK,
		Error:      result.Message,
		CreatedAt:  time.Now().UTC(),
	}
	if len(result.Violations) > 0 {
		if raw, err := json.Marshal(result.Violations); err == nil {
			rec.Violations = raw
		}
	}

	if err := d.recorder.RecordDispatch(ctx, rec); err != nil {
		logging.LogWith(ctx, d.logger).WarnContext(ctx, "record dispatch failed",
			slog.String("error", err.Error()))
	}
}

// anyMap widens a typed argument map for the validator.
func anyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
