package selection

import (
	"fmt"
	"strings"
)

// Cause is why a component was selected, or rejected.
type Cause int

const (
	// Root is the root component of the graph.
	Root Cause = iota
	// Requested is a version requested by a dependency declaration.
	Requested
	// SelectedByRule is a selection made by a rule, e.g. a module replacement.
	SelectedByRule
	// Forced is a forced version.
	Forced
	// ConflictResolution is the winner of a version or capability conflict.
	ConflictResolution
	// CompositeBuild is a project substituted from an included build.
	CompositeBuild
	// Rejection is a component rejected by a rule or a capability conflict.
	Rejection
	// Constraint is a version required by a dependency constraint.
	Constraint
	// ByAncestor is a version selected through a parent platform or BOM.
	ByAncestor
)

var causeDescriptions = [...]string{
	Root:               "root",
	Requested:          "requested",
	SelectedByRule:     "selected by rule",
	Forced:             "forced",
	ConflictResolution: "conflict resolution",
	CompositeBuild:     "selected by composite build",
	Rejection:          "rejection",
	Constraint:         "constraint",
	ByAncestor:         "by ancestor",
}

// String returns the default description of the cause.
func (c Cause) String() string {
	if c >= 0 && int(c) < len(causeDescriptions) {
		return causeDescriptions[c]
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// Descriptor is a cause with an optional custom description.
type Descriptor struct {
	Cause       Cause
	Description string
}

// Describe returns a descriptor for cause with a formatted description.
func Describe(cause Cause, format string, args ...any) Descriptor {
	return Descriptor{Cause: cause, Description: fmt.Sprintf(format, args...)}
}

// HasCustomDescription reports whether a description was provided.
func (d Descriptor) HasCustomDescription() bool {
	return d.Description != ""
}

// String renders "cause: description", or the cause alone.
func (d Descriptor) String() string {
	if !d.HasCustomDescription() {
		return d.Cause.String()
	}
	return d.Cause.String() + ": " + d.Description
}

// Reason is the ordered list of descriptors explaining the selection of a
// component. The zero value is an empty reason. Reason is immutable: With
// returns a new value.
type Reason struct {
	descriptors []Descriptor
}

// NewReason creates a reason from descriptors, dropping duplicates.
func NewReason(descriptors ...Descriptor) Reason {
	var r Reason
	for _, d := range descriptors {
		r = r.With(d)
	}
	return r
}

// With returns a reason that also contains d. Adding a descriptor already
// present returns r unchanged.
func (r Reason) With(d Descriptor) Reason {
	for _, existing := range r.descriptors {
		if existing == d {
			return r
		}
	}
	descriptors := make([]Descriptor, 0, len(r.descriptors)+1)
	descriptors = append(descriptors, r.descriptors...)
	return Reason{descriptors: append(descriptors, d)}
}

// Descriptors returns a copy of the descriptors in insertion order.
func (r Reason) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Has reports whether any descriptor has the given cause.
func (r Reason) Has(cause Cause) bool {
	for _, d := range r.descriptors {
		if d.Cause == cause {
			return true
		}
	}
	return false
}

// IsConflictResolution reports whether the selection came out of a conflict.
func (r Reason) IsConflictResolution() bool { return r.Has(ConflictResolution) }

// IsSelectedByRule reports whether a rule selected the component.
func (r Reason) IsSelectedByRule() bool { return r.Has(SelectedByRule) }

// IsEmpty reports whether no descriptor was recorded.
func (r Reason) IsEmpty() bool { return len(r.descriptors) == 0 }

// String renders the descriptors separated by ", ".
func (r Reason) String() string {
	parts := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
