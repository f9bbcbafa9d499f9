package resolveengine

import (
	"errors"
	"fmt"
)

// ErrNoRoot indicates the graph passed to Resolve has no root node.
var ErrNoRoot = errors.New("graph has no root")

// ResolutionError is returned when a conflict could not be resolved.
type ResolutionError struct {
	// Phase is "module" or "capability".
	Phase string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s conflicts: %v", e.Phase, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
