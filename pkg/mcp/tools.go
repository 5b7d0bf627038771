package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/internal/validator"
)

// handleValidate validates a raw payload and returns the full violation list.
func (s *ConformServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("payload is required"), nil
	}

	res, decodeErr := validator.ValidateJSON(s.model, []byte(payload))
	if decodeErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decode failed: %v", decodeErr)), nil
	}

	return marshalResult(map[string]any{
		"valid":      res.Valid(),
		"violations": res.Violations,
		"feedback":   validator.Format(res.Violations),
	})
}

// handleProcess runs the full validate-decide-dispatch pipeline.
func (s *ConformServer) handleProcess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("payload is required"), nil
	}

	outcome, runErr := s.pipeline.Run(ctx, []byte(payload))
	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", runErr)), nil
	}

	return marshalResult(outcome)
}

// handleDispatch dispatches an operation directly with raw arguments.
func (s *ConformServer) handleDispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	operation, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError("operation is required"), nil
	}
	args := mcp.ParseStringMap(req, "args", nil)

	result := s.dispatcher.Dispatch(ctx, operation, args)
	return marshalResult(result)
}

// handleSchema returns the exported JSON Schema for the payload model.
func (s *ConformServer) handleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := constraint.ExportJSON(s.model)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schema export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// handleOperations lists registered operations.
func (s *ConformServer) handleOperations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(s.registry.List())
}

// handleHistory returns recent validation or dispatch records.
func (s *ConformServer) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	limit := req.GetInt("limit", 50)

	switch kind {
	case "validations":
		recs, listErr := s.store.ListValidations(ctx, limit)
		if listErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history query failed: %v", listErr)), nil
		}
		return marshalResult(recs)
	case "dispatches":
		recs, listErr := s.store.ListDispatches(ctx, limit)
		if listErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history query failed: %v", listErr)), nil
		}
		return marshalResult(recs)
	default:
		return mcp.NewToolResultError("kind must be validations or dispatches"), nil
	}
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
