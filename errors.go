package relay

import (
	"errors"
	"fmt"
)

// Error represents a relay library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for relay operations.
const (
	// ErrCodeNoData indicates no data was found.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeConstraint indicates a storage key collision on append.
	// The (id, topic) pair of a message is its storage key; a collision is
	// treated as a fault of that single publish and is never retried.
	ErrCodeConstraint = "CONSTRAINT_VIOLATION"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Code == ErrCodeNoData
	}
	return errors.Is(err, ErrNoData)
}

// IsConstraintViolation checks if an error is an (id, topic) key collision.
func IsConstraintViolation(err error) bool {
	var relayErr *Error
	return errors.As(err, &relayErr) && relayErr.Code == ErrCodeConstraint
}

// APIError is a client-facing structured error. Unlike Error, its shape is
// part of the wire contract and is serialized verbatim to clients.
type APIError struct {
	Code       int    `json:"code"`
	HTTPStatus int    `json:"http"`
	Message    string `json:"error"`
	Link       string `json:"link"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// ErrInvalidPriority rejects a publish whose priority is not an integer
// between 1 and 5. Nothing is written and nothing is fanned out.
var ErrInvalidPriority = &APIError{
	Code:       40007,
	HTTPStatus: 400,
	Message:    "invalid priority parameter",
	Link:       "https://github.com/coregx/relay#publishing",
}
