package dispatch

import (
	"sort"
	"sync"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/pkg/schema"
)

// Registry is a thread-safe operation registry. It is populated once at
// startup and read concurrently thereafter; registration is rejected after
// the first duplicate, never silently replaced.
type Registry struct {
	mu         sync.RWMutex
	operations map[string]Operation
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		operations: make(map[string]Operation),
	}
}

// Register adds an operation to the registry. Returns an error on nil
// operation, empty or duplicate name, or a non-object argument model.
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return schema.NewError(schema.ErrCodeValidation, "operation is nil")
	}
	name := op.Name()
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "operation name is empty")
	}
	if args := op.Args(); args == nil || args.Kind() != constraint.KindObject {
		return schema.NewErrorf(schema.ErrCodeValidation,
			"operation %q argument model must be an object", name).WithOperation(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operations[name]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "operation %q already registered", name)
	}

	r.operations[name] = op
	return nil
}

// Get retrieves an operation by name.
func (r *Registry) Get(name string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operations[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeUnknownOperation, "operation %q not registered", name)
	}
	return op, nil
}

// List returns info for all registered operations, sorted by name.
func (r *Registry) List() []OperationInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]OperationInfo, 0, len(r.operations))
	for _, op := range r.operations {
		infos = append(infos, OperationInfo{
			Name:        op.Name(),
			Description: op.Description(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Has checks if an operation is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.operations[name]
	return ok
}

// Count returns the number of registered operations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.operations)
}
