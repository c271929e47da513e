// Package shared contains common domain types, errors and events used across
// the lesson, recurrence and statistics packages. It has no external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "lesson", "series", "recurrence"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds an invalid-input error for ad-hoc validation failures.
func NewValidationError(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrInvalidInput, message)
}

// Lesson domain errors
var (
	ErrLessonNotFound      = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrInvalidStatus       = NewDomainError("lesson", "Validate", ErrInvalidInput, "invalid lesson status")
	ErrInvalidAttendance   = NewDomainError("lesson", "Validate", ErrInvalidInput, "invalid attendance value")
	ErrInvalidPayment      = NewDomainError("lesson", "Validate", ErrInvalidInput, "invalid payment status")
	ErrInvalidCancellation = NewDomainError("lesson", "Validate", ErrInvalidInput, "invalid cancellation fields")
	ErrInvalidRating       = NewDomainError("lesson", "Validate", ErrValueOutOfRange, "rating must be between 1 and 5")
	ErrStudentNotOnLesson  = NewDomainError("lesson", "Validate", ErrInvalidInput, "student is not on the lesson roster")
	ErrNegativePrice       = NewDomainError("lesson", "Validate", ErrNegativeValue, "price cannot be negative")
	ErrLessonModified      = NewDomainError("lesson", "Update", ErrConcurrentModification, "lesson was modified after it was read")
)

// Series domain errors
var (
	ErrSeriesNotFound        = NewDomainError("series", "Find", ErrNotFound, "lesson series not found")
	ErrInvalidFrequency      = NewDomainError("series", "Validate", ErrInvalidInput, "frequency must be weekly or biweekly")
	ErrInvalidDuration       = NewDomainError("series", "Validate", ErrInvalidInput, "duration must be positive")
	ErrInvalidOccurrences    = NewDomainError("series", "Validate", ErrValueOutOfRange, "max occurrences must be positive")
	ErrEndDateBeforeStart    = NewDomainError("series", "Validate", ErrInvalidInput, "end date is before the first occurrence")
	ErrInvalidScope          = NewDomainError("series", "Validate", ErrInvalidInput, "scope must be this, future or all")
	ErrLessonAlreadyInSeries = NewDomainError("series", "Convert", ErrInvalidState, "lesson already belongs to a series")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConcurrentModification checks if the error is an optimistic-lock conflict.
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidState)
}
