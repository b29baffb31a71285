package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors for reporting and HTTP mapping
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeInvalidID  ErrorType = "INVALID_ID_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeStorage    ErrorType = "STORAGE_ERROR"
	ErrorTypeParse      ErrorType = "PARSE_ERROR"
	ErrorTypeConversion ErrorType = "CONVERSION_ERROR"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidID    = errors.New("invalid identifier")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage failure")
)

// Geo-store specific errors
var (
	ErrFeatureNotFound    = errors.New("feature not found")
	ErrCollectionNotFound = errors.New("feature collection not found")
	ErrInvalidGeoJSON     = errors.New("invalid geoJSON")
	ErrInvalidGeometry    = errors.New("invalid geometry")
	ErrDanglingFeatureRef = errors.New("collection references a missing feature")
)

// AppError represents a custom application error with context
type AppError struct {
	Type     ErrorType              `json:"type"`
	Message  string                 `json:"message"`
	HTTPCode int                    `json:"-"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewValidationError creates a validation error (caller's fault, never retried)
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewInvalidIDError creates an error for a malformed identifier. A malformed id
// is distinct from a valid id with no record behind it.
func NewInvalidIDError(resource string) *AppError {
	return NewAppError(ErrorTypeInvalidID, fmt.Sprintf("invalid %s ID", resource), http.StatusBadRequest)
}

// NewNotFoundError creates a not found error for a valid but absent identifier
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewStorageError creates an error for a storage collaborator failure
func NewStorageError(message string) *AppError {
	return NewAppError(ErrorTypeStorage, message, http.StatusInternalServerError)
}

// NewParseError creates an error for an unparseable inbound payload
func NewParseError(message string) *AppError {
	return NewAppError(ErrorTypeParse, message, http.StatusBadRequest)
}

// NewConversionError creates an error for a failed format conversion
func NewConversionError(message string) *AppError {
	return NewAppError(ErrorTypeConversion, message, http.StatusInternalServerError)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// StatusCode maps any error onto the uniform status contract: 400 for
// validation, invalid-id and parse errors, 404 for not-found, 500 otherwise.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrFeatureNotFound) || errors.Is(err, ErrCollectionNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeValidation
	}
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidGeoJSON) || errors.Is(err, ErrInvalidGeometry)
}

// IsInvalidID checks if an error reports a malformed identifier
func IsInvalidID(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeInvalidID
	}
	return errors.Is(err, ErrInvalidID)
}

// IsStorage checks if an error is a storage collaborator failure
func IsStorage(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeStorage
	}
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrDanglingFeatureRef)
}

// IsParse checks if an error is a payload parse error
func IsParse(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeParse
	}
	return false
}

// IsConversion checks if an error is a format conversion error
func IsConversion(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConversion
	}
	return false
}
