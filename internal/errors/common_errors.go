package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError. ErrorToProblem derives the HTTP status
// from it.
type ErrorType string

const (
	// ErrTypeNetwork marks failures of an external data source (Google Sheets)
	ErrTypeNetwork ErrorType = "NETWORK"
	// ErrTypeParsing marks input that cannot be read as a table
	ErrTypeParsing ErrorType = "PARSING"
	// ErrTypeStorage marks local file system failures, such as writing an export
	ErrTypeStorage ErrorType = "STORAGE"
	// ErrTypeValidation marks rejected arguments
	ErrTypeValidation ErrorType = "VALIDATION"
	// ErrTypeNotFound marks a missing resource, such as a spreadsheet ID
	ErrTypeNotFound ErrorType = "NOT_FOUND"
)

// AppError is a typed failure raised below the HTTP layer. Context carries
// structured details for logs; it is never sent to clients.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records a detail and returns e for chaining
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates an AppError of the given type
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError reports that resource, for example "spreadsheet abc", does not exist
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", nil)
}

// IsType reports whether err wraps an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
