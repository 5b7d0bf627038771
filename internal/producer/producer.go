// Package producer defines the boundary to the external structured-data
// generator. The core never calls the producer itself; it only builds the
// two artifacts the corrective loop needs: the initial generation request
// carrying the exported schema, and the retry request carrying the
// diagnostic feedback.
package producer

import "context"

// Producer generates a raw candidate payload from a request prompt. The
// transport behind it (HTTP, SDK, queue) is an external collaborator's
// concern; implementations must honor ctx cancellation.
type Producer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
