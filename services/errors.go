package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeForbidden     ErrorType = "forbidden"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeExternal      ErrorType = "external"
	ErrorTypeNotConfigured ErrorType = "not_configured"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error carrying an extra detail.
// Package-level sentinels are never mutated.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	ErrProjectNotFound = NewDomainError(ErrorTypeNotFound, "project not found", nil)

	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyPrompt  = NewDomainError(ErrorTypeValidation, "prompt cannot be empty", nil)

	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)

	ErrProjectAccessDenied = NewDomainError(ErrorTypeForbidden, "project belongs to another user", nil)

	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)

	ErrProvidersUnavailable = NewDomainError(ErrorTypeExternal, "all AI providers failed", nil)

	ErrProvidersNotConfigured = NewDomainError(ErrorTypeNotConfigured, "no AI providers configured", nil)
	ErrPersistenceDisabled    = NewDomainError(ErrorTypeNotConfigured, "persistence is not configured", nil)
)

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return GetErrorType(err) == ErrorTypeNotFound }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return GetErrorType(err) == ErrorTypeValidation }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return GetErrorType(err) == ErrorTypeUnauthorized }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return GetErrorType(err) == ErrorTypeForbidden }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return GetErrorType(err) == ErrorTypeConflict }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return GetErrorType(err) == ErrorTypeInternal }

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool { return GetErrorType(err) == ErrorTypeExternal }

// IsNotConfiguredError checks if an error reports a missing deployment setting
func IsNotConfiguredError(err error) bool { return GetErrorType(err) == ErrorTypeNotConfigured }

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
