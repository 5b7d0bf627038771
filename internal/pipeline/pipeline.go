// Package pipeline wires the validate-decide-dispatch control flow: a raw
// candidate payload is decoded, validated exhaustively, routed through the
// decision table, and dispatched. The corrective retry loop that consumes
// the produced feedback lives outside this package.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/internal/decision"
	"github.com/rendis/conform/internal/dispatch"
	"github.com/rendis/conform/internal/logging"
	"github.com/rendis/conform/internal/store"
	"github.com/rendis/conform/internal/validator"
	"github.com/rendis/conform/pkg/schema"
)

// Deps holds the pipeline's collaborators. Store may be nil to disable
// audit recording.
type Deps struct {
	Model      *constraint.Node
	Table      *decision.Table
	Dispatcher *dispatch.Dispatcher
	Store      store.Store
	Logger     *slog.Logger
}

// Pipeline runs candidate payloads end to end. Immutable after construction;
// concurrent Run calls are independent.
type Pipeline struct {
	model      *constraint.Node
	table      *decision.Table
	dispatcher *dispatch.Dispatcher
	store      store.Store
	logger     *slog.Logger
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	PayloadID string                 `json:"payload_id"`
	Result    *schema.Result         `json:"result"`
	Feedback  string                 `json:"feedback,omitempty"`
	Selection *decision.Selection    `json:"selection,omitempty"`
	Dispatch  *schema.DispatchResult `json:"dispatch,omitempty"`
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		model:      deps.Model,
		table:      deps.Table,
		dispatcher: deps.Dispatcher,
		store:      deps.Store,
		logger:     logger,
	}
}

// Run processes one raw candidate payload. The error return carries decode
// failures and decision-rule infrastructure failures; validation failures
// are reported in the Outcome with the full violation list and the formatted
// feedback text for a corrective re-generation attempt.
func (p *Pipeline) Run(ctx context.Context, raw []byte) (*Outcome, error) {
	payloadID := uuid.New().String()
	ctx = logging.WithPayloadID(ctx, payloadID)
	log := logging.LogWith(ctx, p.logger)

	value, err := validator.DecodeJSON(raw)
	if err != nil {
		log.WarnContext(ctx, "payload decode failed")
		return nil, err
	}

	res := validator.Validate(p.model, value)
	p.recordValidation(ctx, payloadID, res)

	if !res.Valid() {
		log.InfoContext(ctx, "payload invalid", slog.Int("violations", len(res.Violations)))
		return &Outcome{
			PayloadID: payloadID,
			Result:    res,
			Feedback:  validator.Format(res.Violations),
		}, nil
	}

	payload, _ := res.Value.(map[string]any)
	sel, err := p.table.Select(ctx, payload)
	if err != nil {
		return nil, err
	}

	dr := p.dispatcher.Dispatch(ctx, sel.Operation, sel.Args)
	log.InfoContext(ctx, "payload processed",
		slog.String("selected_operation", sel.Operation),
		slog.String("dispatch_status", string(dr.Status)))

	return &Outcome{
		PayloadID: payloadID,
		Result:    res,
		Selection: sel,
		Dispatch:  &dr,
	}, nil
}

func (p *Pipeline) recordValidation(ctx context.Context, payloadID string, res *schema.Result) {
	if p.store == nil {
		return
	}

	rec := &store.ValidationRecord{
		ID:             uuid.New().String(),
		PayloadID:      payloadID,
		Valid:          res.Valid(),
		ViolationCount: len(res.Violations),
		CreatedAt:      time.Now().UTC(),
	}
	if len(res.Violations) > 0 {
		if raw, err := json.Marshal(res.Violations); err == nil {
			rec.Violations = raw
		}
	}

	if err := p.store.RecordValidation(ctx, rec); err != nil {
		logging.LogWith(ctx, p.logger).WarnContext(ctx, "record validation failed",
			slog.String("error", err.Error()))
	}
}
