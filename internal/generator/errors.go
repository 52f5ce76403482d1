package generator

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is
var ErrValidation = errors.New("validation error")

// ValidationError reports malformed generator input. It is returned by the
// call that detected it and no partial output accompanies it.
type ValidationError struct {
	Op     string // generator operation, e.g. "generate_vlans_for_network"
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: invalid %s %q: %s", e.Op, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(op, field, value, reason string) error {
	return &ValidationError{Op: op, Field: field, Value: value, Reason: reason}
}
