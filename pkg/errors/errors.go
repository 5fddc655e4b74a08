// Package errors defines the typed error taxonomy used across the matching
// and recurring-detection engine.
//
// Errors carry a category (broad class), a code (specific condition) and a
// context map so that callers can branch on them without string matching,
// and so that bulk operations can log per-entity failures with enough
// detail to diagnose them later.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category represents a broad class of engine errors.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryStorage    Category = "storage"
	CategoryMatching   Category = "matching"
	CategoryRecurring  Category = "recurring"
	CategoryInternal   Category = "internal"
)

// Code identifies a specific error condition within a category.
type Code string

const (
	// Not-found conditions. Ownership failures deliberately map to the same
	// codes as true absence so callers cannot probe other users' data.
	CodeSessionNotFound     Code = "session_not_found"
	CodePatternNotFound     Code = "pattern_not_found"
	CodeTransactionNotFound Code = "transaction_not_found"

	// Validation conditions.
	CodeInvalidConfig Code = "invalid_config"
	CodeInvalidInput  Code = "invalid_input"
	CodeInvalidState  Code = "invalid_state"

	// Storage conditions.
	CodeStorageFailure Code = "storage_failure"

	// Processing conditions.
	CodeMatchingFailed   Code = "matching_failed"
	CodeDetectionFailed  Code = "detection_failed"
	CodeProcessingError  Code = "processing_error"
	CodeUnexpectedError  Code = "unexpected_error"
)

// EngineError is the base error type for all engine errors.
type EngineError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional structured information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair to the error.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// ExitCode maps the error category to a process exit code for CLI use.
func (e *EngineError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryNotFound:
		return 3
	case CategoryStorage:
		return 4
	case CategoryMatching, CategoryRecurring, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// New creates a new EngineError with a captured stack trace.
func New(category Category, code Code, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with engine error classification.
func Wrap(err error, category Category, code Code, message string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NotFound creates a not-found error for the named resource.
func NotFound(code Code, resource, id string) *EngineError {
	return New(CategoryNotFound, code, fmt.Sprintf("%s not found: %s", resource, id)).
		WithContext("resource", resource).
		WithContext("id", id)
}

// Validation creates a validation error for a named field or setting.
func Validation(code Code, field string, value interface{}, reason string) *EngineError {
	return New(CategoryValidation, code, fmt.Sprintf("invalid %s (%v): %s", field, value, reason)).
		WithContext("field", field).
		WithContext("value", value)
}

// Storage wraps a persistence-layer failure.
func Storage(operation string, err error) *EngineError {
	return Wrap(err, CategoryStorage, CodeStorageFailure, fmt.Sprintf("storage failure during %s", operation)).
		WithContext("operation", operation)
}

// Recurring wraps a failure during recurring detection or lifecycle
// processing.
func Recurring(code Code, entity string, err error) *EngineError {
	return Wrap(err, CategoryRecurring, code, fmt.Sprintf("recurring processing failed for %s", entity)).
		WithContext("entity", entity)
}

// IsNotFound reports whether the error (or any error in its chain) is a
// not-found engine error.
func IsNotFound(err error) bool {
	if ee, ok := AsEngineError(err); ok {
		return ee.Category == CategoryNotFound
	}
	return false
}

// IsValidation reports whether the error is a validation engine error.
func IsValidation(err error) bool {
	if ee, ok := AsEngineError(err); ok {
		return ee.Category == CategoryValidation
	}
	return false
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error unless it already is an EngineError.
func WrapIfNeeded(err error, category Category, code Code, message string) *EngineError {
	if err == nil {
		return nil
	}
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr
	}
	return Wrap(err, category, code, message)
}
