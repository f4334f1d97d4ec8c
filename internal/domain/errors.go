package domain

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	ErrInvariant  = errors.New("invariant violation")
)

// ValidationError carries the specific reason a submission was rejected
// (bad rating, empty content, unknown provider, ...) so callers can report
// it instead of a generic failure.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "invalid input: " + e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(reason string) error { return &ValidationError{Reason: reason} }

// InvariantError marks an illegal state transition, e.g. featuring a review
// that was never approved. The operation is rejected outright.
type InvariantError struct{ Msg string }

func (e *InvariantError) Error() string { return "invariant violation: " + e.Msg }
func (e *InvariantError) Unwrap() error { return ErrInvariant }
