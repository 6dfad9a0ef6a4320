/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Component packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Rate errors - No rate band covers the input (RateNotFoundError)
  2. Validation errors - Business rule violations (ValidationError)
  3. Computation errors - Arithmetic edge cases with documented fallbacks
  4. Concurrency errors - Lost compare-and-swap on a shared ledger
  5. Store errors - Missing records, duplicate idempotency keys

PROPAGATION:
  Read-side calculations (GSV, SSV, bonus) treat a missing rate band as zero.
  Money-moving operations (issuance, payments, loans) always surface errors.

USAGE:
  if errors.Is(err, generic.ErrValidation) {
      // reject the request, never auto-correct
  }
  if generic.IsRetryable(err) {
      // re-run the whole operation
  }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRateNotFound is returned when no rate band covers a lookup key.
	ErrRateNotFound = errors.New("rate not found")

	// ErrValidation is returned when a domain rule is violated.
	ErrValidation = errors.New("validation failed")

	// ErrComputation is returned for arithmetic edge cases such as overflow
	// in compound interest factors.
	ErrComputation = errors.New("computation failed")

	// ErrConcurrencyConflict is returned when optimistic locking detects that
	// a ledger changed between read and write. Retry the whole operation.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a state machine refuses a move.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDuplicateIdempotencyKey is returned when an entry with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RateNotFoundError names the table and key that had no covering band.
type RateNotFoundError struct {
	Table string
	Key   string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no %s rate band covers %s", e.Table, e.Key)
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

// ValidationError describes a violated business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError with a formatted message.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ComputationError wraps an arithmetic failure inside a named formula.
type ComputationError struct {
	Formula string
	Err     error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Formula, e.Err)
}

func (e *ComputationError) Unwrap() []error { return []error{ErrComputation, e.Err} }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransitionError describes a refused state machine move.
type TransitionError struct {
	Machine string
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %s to %s", e.Machine, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
