package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIntegrity matches every IntegrityError and IntegrityErrors
	ErrIntegrity = errors.New("integrity error")
	// ErrDefinition marks a definition that cannot be assembled
	ErrDefinition = errors.New("invalid topology definition")
)

// IntegrityError reports one dangling or inconsistent reference in a graph
type IntegrityError struct {
	Entity  string // entity kind, e.g. "device"
	ID      string // id or serial of the offending entity
	Field   string
	Missing string // the value that did not resolve
	Reason  string
}

func (e *IntegrityError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "does not resolve"
	}
	return fmt.Sprintf("%s %s: %s %q %s", e.Entity, e.ID, e.Field, e.Missing, reason)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IntegrityErrors is every problem found by one Validate call
type IntegrityErrors []*IntegrityError

func (e IntegrityErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, ie := range e {
		msgs = append(msgs, ie.Error())
	}
	return fmt.Sprintf("%d integrity errors: %s", len(e), strings.Join(msgs, "; "))
}

func (e IntegrityErrors) Is(target error) bool {
	return target == ErrIntegrity
}

// Unwrap exposes the individual errors to errors.As
func (e IntegrityErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, ie := range e {
		errs[i] = ie
	}
	return errs
}

func definitionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDefinition, fmt.Sprintf(format, args...))
}
