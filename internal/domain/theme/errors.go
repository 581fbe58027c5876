package theme

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories of the theme domain.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeMissing    ErrorCode = "MISSING_REQUIRED"
	ErrCodeEnum       ErrorCode = "INVALID_ENUM"
	ErrCodeVersion    ErrorCode = "SCHEMA_VERSION"
	ErrCodeState      ErrorCode = "INVALID_STATE"
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents a typed error enriched with contextual data while
// remaining free from infrastructure dependencies.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func newDomainError(code ErrorCode, message string, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Context: context}
}

func newMissingFieldError(field string) *DomainError {
	return newDomainError(ErrCodeMissing, "missing required field "+field, map[string]interface{}{
		"field": field,
	})
}

func newEnumError(field, value string) *DomainError {
	return newDomainError(ErrCodeEnum, fmt.Sprintf("%s %q is not allowed", field, value), map[string]interface{}{
		"field": field,
		"value": value,
	})
}

func newVersionError(got string) *DomainError {
	return newDomainError(ErrCodeVersion, fmt.Sprintf("schema version %q, want %q", got, SchemaVersion), map[string]interface{}{
		"got":  got,
		"want": SchemaVersion,
	})
}

// NewStateError reports an operation invoked in the wrong lifecycle phase.
func NewStateError(message string) *DomainError {
	return newDomainError(ErrCodeState, message, nil)
}
