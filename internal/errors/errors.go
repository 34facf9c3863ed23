package errors

import "fmt"

// ErrorType represents the categories of failures the engine distinguishes.
type ErrorType string

const (
	// ErrorTypeInput covers malformed or unsupported source images. An
	// input error aborts the whole run before any analyzer executes.
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeAnalyzer covers a single technique failing to produce a
	// result. It is isolated per technique and never aborts the others.
	ErrorTypeAnalyzer ErrorType = "analyzer"
	// ErrorTypeAggregation covers reports built from fewer usable results
	// than the full technique set.
	ErrorTypeAggregation ErrorType = "aggregation"
	// ErrorTypeInternal covers unexpected engine failures.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is a structured engine error.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInputError creates an input-contract violation error.
func NewInputError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInput, Message: message, Cause: cause}
}

// NewAnalyzerError creates a per-technique failure error.
func NewAnalyzerError(technique, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeAnalyzer, Message: message, Details: technique, Cause: cause}
}

// NewAggregationError creates an incomplete-aggregation error.
func NewAggregationError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeAggregation, Message: message, Cause: cause}
}

// NewInternalError creates an unexpected-failure error.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Cause: cause}
}

// IsType checks if the error is of a specific type.
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}
