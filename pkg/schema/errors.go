package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeDecode           = "DECODE_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBuild            = "BUILD_ERROR"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeUnknownOperation = "UNKNOWN_OPERATION"
	ErrCodeExecution        = "EXECUTION_ERROR"
	ErrCodeStore            = "STORE_ERROR"
)

// ConformError is the structured error type for all conform operations.
type ConformError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Cause     error          `json:"-"`
}

func (e *ConformError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s] operation %s: %s", e.Code, e.Operation, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ConformError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ConformError.
func NewError(code, message string) *ConformError {
	return &ConformError{Code: code, Message: message}
}

// NewErrorf creates a new ConformError with a formatted message.
func NewErrorf(code, format string, args ...any) *ConformError {
	return &ConformError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithOperation attaches an operation name to the error.
func (e *ConformError) WithOperation(name string) *ConformError {
	e.Operation = name
	return e
}

// WithCause attaches an underlying cause.
func (e *ConformError) WithCause(err error) *ConformError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ConformError) WithDetails(details map[string]any) *ConformError {
	e.Details = details
	return e
}
