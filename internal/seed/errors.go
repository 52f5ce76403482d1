package seed

import (
	"errors"
	"fmt"
)

var (
	ErrStoreWrite      = errors.New("store write failed")
	ErrInvalidTopology = errors.New("invalid topology name")
	ErrForeignRecord   = errors.New("record outside the topology namespace")
)

// Phases of ReplaceTopology
const (
	PhaseDelete = "delete"
	PhaseWrite  = "write"
)

// StoreWriteError reports a seeding run the store stopped. Re-running the
// same replace converges on the intended state.
type StoreWriteError struct {
	Topology    string
	Phase       string
	Attempted   int // records (or keys) in the phase
	Written     int // applied before the failure
	Batch       int // index of the failing batch
	Unprocessed int // items of that batch still not applied
	Err         error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("topology %s: %s phase failed at batch %d (%d/%d applied, %d unprocessed): %v",
		e.Topology, e.Phase, e.Batch, e.Written, e.Attempted, e.Unprocessed, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

func (e *StoreWriteError) Is(target error) bool {
	return target == ErrStoreWrite
}
