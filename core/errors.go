package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PeriodClosedError is a policy rejection: the targeted month no longer
// (or does not yet) accept ledger writes. It is distinct from ValidationError;
// the input was well-formed but the period is locked.
type PeriodClosedError struct {
	MonthKey string
	Reason   string
}

func NewPeriodClosedError(monthKey, reason string) error {
	return &PeriodClosedError{MonthKey: monthKey, Reason: reason}
}

func (err PeriodClosedError) Error() string {
	return "period " + err.MonthKey + " is closed: " + err.Reason
}

func IsPeriodClosed(err error) bool {
	_, ok := errors.Cause(err).(*PeriodClosedError)
	return ok
}

// AuthorizationError must never leak who the authoritative reviewer is.
type AuthorizationError struct {
	message string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{message: msg}
}

func (err AuthorizationError) Error() string {
	return err.message
}

func IsAuthorization(err error) bool {
	_, ok := errors.Cause(err).(*AuthorizationError)
	return ok
}

// ConflictError signals a unique-constraint violation.
type ConflictError struct {
	Err error
}

func NewConflictError(err error) error {
	return &ConflictError{Err: err}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
