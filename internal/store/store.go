package store

import "context"

// Store defines the persistence layer contract for audit records and
// executor side effects. All implementations must be safe for concurrent use.
type Store interface {
	// Validation attempts (append-only audit)
	RecordValidation(ctx context.Context, rec *ValidationRecord) error
	ListValidations(ctx context.Context, limit int) ([]*ValidationRecord, error)

	// Dispatch outcomes (append-only audit)
	RecordDispatch(ctx context.Context, rec *DispatchRecord) error
	ListDispatches(ctx context.Context, limit int) ([]*DispatchRecord, error)

	// Documents persisted by executors
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, collection string, limit int) ([]*Document, error)

	// Review flags raised by executors
	SaveFlag(ctx context.Context, flag *Flag) error
	ListFlags(ctx context.Context, limit int) ([]*Flag, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
