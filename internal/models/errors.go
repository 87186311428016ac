package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the profile model, repository and editor.
// Callers match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport error")
	ErrIndex      = errors.New("index out of range")
)

// ValidationError reports a caller-correctable problem with a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError is returned when a uniqueness rule would be broken.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict reasons shown to users verbatim.
const (
	ReasonUsernameTaken  = "username already taken"
	ReasonAlreadyClaimed = "profile already claimed"
)

// NotFoundError is returned when a profile does not exist for the given key.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransportError wraps a failure of the persistence capability. The
// operation may be retried with identical input.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IndexError signals a caller bug: a link position outside the list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("link index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}
