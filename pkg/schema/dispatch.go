package schema

// DispatchStatus classifies the outcome of a dispatch attempt by cause.
type DispatchStatus string

const (
	// StatusDispatched means arguments were valid and the executor ran.
	StatusDispatched DispatchStatus = "dispatched"
	// StatusUnknownOperation means the operation name is not registered.
	StatusUnknownOperation DispatchStatus = "unknown_operation"
	// StatusArgumentInvalid means argument validation failed; the executor never ran.
	StatusArgumentInvalid DispatchStatus = "argument_invalid"
	// StatusExecutionFailed means the executor itself failed after receiving valid arguments.
	StatusExecutionFailed DispatchStatus = "execution_failed"
)

// DispatchResult is the typed outcome of a dispatch attempt. Dispatch never
// raises: every failure mode is returned as one of the four statuses so an
// automated pipeline keeps operating across independent attempts.
type DispatchResult struct {
	Status     DispatchStatus `json:"status"`
	Operation  string         `json:"operation,omitempty"`
	ExecutorOK bool           `json:"executor_ok,omitempty"`
	Violations []Violation    `json:"violations,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// Dispatched reports a completed executor invocation with its business outcome.
func Dispatched(operation string, executorOK bool) DispatchResult {
	return DispatchResult{Status: StatusDispatched, Operation: operation, ExecutorOK: executorOK}
}

// UnknownOperation reports a dispatch request for an unregistered name.
func UnknownOperation(name string) DispatchResult {
	return DispatchResult{Status: StatusUnknownOperation, Operation: name}
}

// ArgumentInvalid reports argument validation failure; carries every violation.
func ArgumentInvalid(operation string, violations []Violation) DispatchResult {
	return DispatchResult{Status: StatusArgumentInvalid, Operation: operation, Violations: violations}
}

// ExecutionFailed reports an executor failure after valid arguments were delivered.
func ExecutionFailed(operation, message string) DispatchResult {
	return DispatchResult{Status: StatusExecutionFailed, Operation: operation, Message: message}
}
