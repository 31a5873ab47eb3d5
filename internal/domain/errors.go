package domain

import (
	"errors"
	"fmt"
)

// Error kinds understood by the HTTP boundary.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
)

// Store-level errors shared by every account store implementation.
var (
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrEmailTaken      = fmt.Errorf("email already registered: %w", ErrConflict)
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
