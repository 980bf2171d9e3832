// Package apperrors defines the categorized errors surfaced to tool callers.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeProcessing  ErrorType = "processing"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeInternal    ErrorType = "internal"
)

// JSON-RPC error codes per category.
const (
	CodeInvalidParams = -32602
	CodeProcessing    = -32000
	CodeUnavailable   = -32001
	CodeInternal      = -32603
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, Cause: cause}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeProcessing, Message: message, Cause: cause}
}

// NewUnavailableError reports a collaborator (model, OCR engine) that is not configured or not reachable.
func NewUnavailableError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeUnavailable, Message: message, Cause: cause}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Cause: cause}
}

// IsType checks if err, or any error it wraps, is an AppError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// Code maps an error to its JSON-RPC error code.
func Code(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return CodeProcessing
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return CodeInvalidParams
	case ErrorTypeUnavailable:
		return CodeUnavailable
	case ErrorTypeInternal:
		return CodeInternal
	default:
		return CodeProcessing
	}
}
