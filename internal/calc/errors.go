package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range numeric input.
	ErrValidation = errors.New("validation failed")
	// ErrSearchAssumption is returned when probe results show the goal
	// predicate is not monotonic over the searched EV range.
	ErrSearchAssumption = errors.New("search assumption violated")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SearchAssumptionError carries the endpoint probes that contradicted the
// declared direction.
type SearchAssumptionError struct {
	Direction Direction
	AtMin     bool
	AtMax     bool
}

func (e *SearchAssumptionError) Error() string {
	return fmt.Sprintf("%v: %s goal is %t at 0 EVs and %t at the limit",
		ErrSearchAssumption, e.Direction, e.AtMin, e.AtMax)
}

func (e *SearchAssumptionError) Unwrap() error {
	return ErrSearchAssumption
}
