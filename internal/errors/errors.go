// Package errors provides typed domain errors for the pricing engine.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeRateNotFound indicates a required rate could not be resolved.
	// Only FX resolution produces this; it is fatal for the whole run.
	TypeRateNotFound Type = "RATE_NOT_FOUND"

	// TypeInvalidMargin indicates a margin value outside the invertible range
	TypeInvalidMargin Type = "INVALID_MARGIN"

	// TypeEmptyItemSet indicates a run was started with no items
	TypeEmptyItemSet Type = "EMPTY_ITEM_SET"

	// TypeConfig indicates an invalid run or application configuration
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStorage indicates a rate store failure
	TypeStorage Type = "STORAGE_ERROR"

	// TypeNetwork indicates an external feed failure
	TypeNetwork Type = "NETWORK_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a domain error carrying a category and structured context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for diagnostics (item, date, scope)
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a category and message
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is a domain error of the given type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// RateNotFound creates a fatal rate-resolution error
func RateNotFound(kind, scope string) *Error {
	return Newf(TypeRateNotFound, "no %s rate found for %s", kind, scope)
}

// InvalidMargin creates an invalid-margin error
func InvalidMargin(value string) *Error {
	return Newf(TypeInvalidMargin, "margin value %s is not invertible: must be < 1", value)
}

// EmptyItemSet creates an empty-item-set error
func EmptyItemSet() *Error {
	return New(TypeEmptyItemSet, "no items supplied for pricing run")
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// Configf creates a formatted configuration error
func Configf(format string, args ...interface{}) *Error {
	return Newf(TypeConfig, format, args...)
}

// Storage wraps a rate store failure
func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

// Network wraps an external feed failure
func Network(message string, cause error) *Error {
	return Wrap(TypeNetwork, message, cause)
}
