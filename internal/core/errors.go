package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidType       = errors.New("invalid account type")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidAlertType  = errors.New("invalid alert type")
	ErrInvalidRole       = errors.New("invalid role")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrMissingField      = errors.New("missing required field")
)

// ValidationError is input rejected before it reaches the store. Field names
// the offending input as the client sent it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
