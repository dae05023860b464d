/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them with %w) so the API layer can
  map them to HTTP statuses with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - Template writes with missing or out-of-range fields
  2. Not-found errors - References to templates (or other records) that do not exist
  3. Store errors - Database failures, wrapped by the store packages

LEDGER CONFLICTS:
  There is no conflict error. Ledger upserts are last-write-wins.

SEE ALSO:
  - recurrence/validate.go: Produces ValidationError
  - report/engine.go: Produces NotFoundError
  - api/handlers.go: Maps errors to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the root of every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPeriod is returned when a window is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldProblem is one violated rule on one field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in one write, so callers can
// fix them all at once.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a problem.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when no problem was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a single-problem ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	v := &ValidationError{}
	v.Add(field, format, args...)
	return v
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // e.g. "template"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
