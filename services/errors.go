package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeInternal        ErrorType = "internal"
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  []FieldError
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

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error naming the offending fields.
func NewValidationError(fields ...FieldError) *DomainError {
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: "Validation Error",
		Fields:  fields,
	}
}

// Domain error variables

var (
	ErrUserNotFound  = NewDomainError(ErrorTypeNotFound, "User not found", nil)
	ErrRouteNotFound = NewDomainError(ErrorTypeNotFound, "Route not found", nil)

	ErrUnauthenticated = NewDomainError(ErrorTypeUnauthenticated, "Unauthorized", nil)
	ErrForbidden       = NewDomainError(ErrorTypeForbidden, "Forbidden", nil)

	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "Email already in use", nil)
	ErrDuplicateID    = NewDomainError(ErrorTypeConflict, "User id already in use", nil)

	ErrRateLimited = NewDomainError(ErrorTypeRateLimit, "Too many requests", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "Internal Server Error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthenticatedError checks if an error means no valid session
func IsUnauthenticatedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthenticated
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorFields returns the field errors of a validation error
func GetErrorFields(err error) []FieldError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

// GetErrorMessage returns the client-facing message of a domain error.
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// WrapNotFound wraps a store error as a not found error with the sentinel's message
func WrapNotFound(sentinel *DomainError, err error) error {
	return NewDomainError(ErrorTypeNotFound, sentinel.Message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
