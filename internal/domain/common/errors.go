package common

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by every domain. Repositories and services wrap them
// with fmt.Errorf("...: %w") so callers can match with errors.Is.
var (
	ErrDecode             = errors.New("malformed ticket payload")
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyCheckedIn   = errors.New("guest already checked in")
	ErrConflict           = errors.New("conflicting write")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
)

// DefaultAuthorizer is shown when a check-in has no recorded staff name.
const DefaultAuthorizer = "Sistema"

// DecodeError describes why a scanned payload could not be decoded.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode ticket payload: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// AlreadyCheckedInError is returned when the check-in state machine finds a
// participation that has already been admitted.
type AlreadyCheckedInError struct {
	GuestID      string
	AuthorizedBy string
	CheckedInAt  *time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("guest %s already checked in by %s", e.GuestID, e.Authorizer())
}

func (e *AlreadyCheckedInError) Unwrap() error {
	return ErrAlreadyCheckedIn
}

// Authorizer returns the staff name behind the original check-in, or the
// generic label when none was recorded.
func (e *AlreadyCheckedInError) Authorizer() string {
	if e.AuthorizedBy == "" {
		return DefaultAuthorizer
	}
	return e.AuthorizedBy
}

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Unavailable wraps a driver or network failure so that it matches
// ErrBackendUnavailable while keeping the original cause inspectable.
func Unavailable(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrBackendUnavailable, cause))
}

// NotFound wraps ErrNotFound with the kind of record that was missing.
func NotFound(kind string) error {
	return fmt.Errorf("%s: %w", kind, ErrNotFound)
}
