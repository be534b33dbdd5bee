/*
errors.go - Centralized error types for the computation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine never catches or logs; callers inspect these with errors.Is
  and errors.As and turn them into user-facing messages.

ERROR CATEGORIES:
  1. Input errors - Negative hour budgets, unknown payment terms, bad records
  2. Workflow errors - Status transitions outside the allowed table
  3. Lookup errors - Records that do not exist

USAGE:
  alloc, err := amc.Allocate(hours, term)
  if errors.Is(err, amc.ErrUnrecognizedPaymentTerm) {
      // show "fix the client's payment term"
  }

SEE ALSO:
  - allocation.go: Returns InvalidAllocationError / UnrecognizedTermError
  - status.go: Returns TransitionError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package amc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAllocationInput is returned when the yearly hour budget is
	// negative. A negative budget is an upstream data error.
	ErrInvalidAllocationInput = errors.New("invalid allocation input")

	// ErrUnrecognizedPaymentTerm is returned for a term outside the known set.
	ErrUnrecognizedPaymentTerm = errors.New("unrecognized payment term")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRecord is returned when an input record fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidPolicy is returned when policy constants are out of range.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAllocationError reports a negative yearly hour budget.
type InvalidAllocationError struct {
	HoursAssignedYear decimal.Decimal
}

func (e *InvalidAllocationError) Error() string {
	return fmt.Sprintf("invalid allocation input: hours assigned per year %s is negative", e.HoursAssignedYear)
}

func (e *InvalidAllocationError) Unwrap() error {
	return ErrInvalidAllocationInput
}

// UnrecognizedTermError reports a payment term outside the divisor table.
type UnrecognizedTermError struct {
	Term PaymentTerm
}

func (e *UnrecognizedTermError) Error() string {
	return fmt.Sprintf("unrecognized payment term %q", string(e.Term))
}

func (e *UnrecognizedTermError) Unwrap() error {
	return ErrUnrecognizedPaymentTerm
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	Kind string // "work_log" or "hour_request"
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %q to %q", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// RecordError names the field that failed validation.
type RecordError struct {
	Field   string
	Message string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *RecordError) Unwrap() error {
	return ErrInvalidRecord
}

// ClientNotFoundError names the missing client.
type ClientNotFoundError struct {
	ClientID ClientID
}

func (e *ClientNotFoundError) Error() string {
	return fmt.Sprintf("client %s not found", e.ClientID)
}

func (e *ClientNotFoundError) Unwrap() error {
	return ErrClientNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAllocationInput) ||
		errors.Is(err, ErrUnrecognizedPaymentTerm) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidPolicy)
}

// IsConflict returns true if the error is a rejected workflow step.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}
