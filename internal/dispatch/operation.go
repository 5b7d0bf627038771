package dispatch

import (
	"context"

	"github.com/rendis/conform/internal/constraint"
)

// Operation is a named side-effecting unit of work. Its executor is only
// ever invoked with arguments proven to satisfy the argument model, so it
// can assume its contract is met.
type Operation interface {
	Name() string
	Description() string
	// Args returns the argument constraint model. Must be an object node;
	// registration rejects anything else.
	Args() *constraint.Node
	// Execute runs the operation. The bool is the business outcome; a
	// non-nil error (or a panic, which the dispatcher recovers) is an
	// execution failure.
	Execute(ctx context.Context, args map[string]any) (bool, error)
}

// OperationInfo is a summary of a registered operation for listing.
type OperationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
