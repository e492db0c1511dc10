package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/veilpoint/vpn-backend/internal/constants"
)

// Custom error types for the application
var (
	ErrNotFound         = errors.New("resource not found")
	ErrBadRequest       = errors.New("invalid request")
	ErrInternalServer   = errors.New("internal server error")
	ErrValidation       = errors.New("validation error")
	ErrDuplicate        = errors.New("duplicate resource")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrUnavailable      = errors.New("service unavailable")
)

// AppError represents an application error with additional context
type AppError struct {
	Err        error  // The underlying error kind
	StatusCode int    // HTTP status code
	Message    string // User-facing error message
	DevInfo    string // Additional information for developers
	Field      string // Field related to the error (for validation errors)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given error kind and status code
func New(err error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Field:      field,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NewNotFoundError creates a new not found error.
// The message is part of the wire contract, so the caller supplies it verbatim
// rather than having it assembled from resource type and identifier.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		StatusCode: http.StatusNotFound,
		Message:    message,
	}
}

// NewCapacityExceededError creates an error reporting that a relay server
// has no free occupancy slots.
func NewCapacityExceededError() *AppError {
	return &AppError{
		Err:        ErrCapacityExceeded,
		StatusCode: http.StatusServiceUnavailable,
		Message:    constants.MsgServerFull,
	}
}

// NewUnavailableError creates an error reporting that the datastore could
// not be reached.
func NewUnavailableError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrUnavailable,
		StatusCode: http.StatusInternalServerError,
		Message:    constants.MsgServiceUnavailable,
		DevInfo:    devInfo,
	}
}

// NewInternalServerError creates a new internal server error.
// The underlying message is surfaced to the caller; the store error text is
// the only detail it can carry. An implementer revisiting this should
// consider redacting raw store errors.
func NewInternalServerError(err error) *AppError {
	message := constants.MsgInternalServerError
	if err != nil {
		message = err.Error()
	}
	return &AppError{
		Err:        ErrInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    message,
	}
}

// NewDuplicateError creates a new duplicate resource error
func NewDuplicateError(resourceType, field string, value interface{}) *AppError {
	return &AppError{
		Err:        ErrDuplicate,
		StatusCode: http.StatusConflict,
		Message:    fmt.Sprintf("%s with %s '%v' already exists", resourceType, field, value),
		Field:      field,
	}
}

// ParseError attempts to parse various types of errors into an AppError
func ParseError(err error) *AppError {
	// If it's already an AppError, return it
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Check for specific error kinds
	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFoundError(err.Error())
	case errors.Is(err, ErrBadRequest):
		return NewBadRequestError(err.Error())
	case errors.Is(err, ErrValidation):
		return NewValidationError("", err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		return NewCapacityExceededError()
	case errors.Is(err, ErrUnavailable):
		return NewUnavailableError(err)
	}

	// Check for PostgreSQL-specific errors
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case constants.PGErrorDuplicateConstraint:
			return &AppError{
				Err:        ErrDuplicate,
				StatusCode: http.StatusConflict,
				Message:    "A resource with the same unique identifier already exists",
				DevInfo:    pqErr.Error(),
				Field:      pqErr.Constraint,
			}
		case constants.PGErrorForeignKeyConstraint:
			return &AppError{
				Err:        ErrBadRequest,
				StatusCode: http.StatusBadRequest,
				Message:    "This operation violates a foreign key constraint",
				DevInfo:    pqErr.Error(),
			}
		case constants.PGErrorNotNullConstraint:
			return &AppError{
				Err:        ErrValidation,
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("The %s field cannot be empty", pqErr.Column),
				DevInfo:    pqErr.Error(),
				Field:      pqErr.Column,
			}
		}
	}

	// Check for general database-specific error patterns
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "connection reset"):
		return NewUnavailableError(err)
	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no rows"):
		return NewNotFoundError("The requested resource could not be found")
	}

	// Default to internal server error
	return NewInternalServerError(err)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// IsCapacityExceededError checks if an error reports a full relay server
func IsCapacityExceededError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return errors.Is(appErr.Err, ErrCapacityExceeded)
	}
	return errors.Is(err, ErrCapacityExceeded)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return errors.Is(appErr.Err, ErrValidation)
	}
	return errors.Is(err, ErrValidation)
}

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
