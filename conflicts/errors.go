package conflicts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// ErrNoConflict is returned by ResolveNextConflict when nothing is pending.
var ErrNoConflict = errors.New("no pending conflict")

// ErrUnknownModule is returned when a conflict refers to a module the graph
// does not know.
var ErrUnknownModule = errors.New("unknown module")

// InvalidUserCodeError wraps a failure of a user supplied capability
// resolution rule.
type InvalidUserCodeError struct {
	Capability string
	Err        error
}

func (e *InvalidUserCodeError) Error() string {
	return fmt.Sprintf("capability resolution rule for %s failed: %v", e.Capability, e.Err)
}

func (e *InvalidUserCodeError) Unwrap() error { return e.Err }

// InternalStateError reports a resolver that broke the resolution protocol,
// e.g. a composite chain where no resolver selected a candidate.
type InternalStateError struct {
	Message string
}

func (e *InternalStateError) Error() string {
	return "internal state error: " + e.Message
}

// VersionConflictError is the failure reported for a version conflict when
// the resolution strategy forbids them.
type VersionConflictError struct {
	Module   ident.ModuleID
	Versions []string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("conflict found for module %s between versions %s", e.Module, strings.Join(e.Versions, " and "))
}

// PanicError carries a value recovered from a panicking rule.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
