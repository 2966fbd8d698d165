package apperrors

import (
	"errors"
	"fmt"
)

// InvalidCodeMessage is the single user-visible message for every failed code
// lookup: wrong code, expired code, or a code bound to another doctor. The
// causes must stay indistinguishable to the caller.
const InvalidCodeMessage = "invalid or expired access code"

var (
	// ErrUnauthenticated means the request carried no usable credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is known but its durable role does not
	// permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOrExpiredCode covers wrong, expired and foreign-bound codes.
	ErrInvalidOrExpiredCode = errors.New(InvalidCodeMessage)

	// ErrCodeSpaceExhausted means code generation ran out of retry attempts.
	ErrCodeSpaceExhausted = errors.New("access code space exhausted")

	// ErrConflict means a uniqueness constraint was violated, e.g. duplicate
	// registration for the same email and role.
	ErrConflict = errors.New("conflict")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input. It is always detected before any
// write and surfaced verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidation creates a ValidationError for a field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
