package conflicts

import (
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
)

// Graph is the view of the graph under construction used by the handlers.
type Graph interface {
	// Module returns the module with the given id, or nil if the graph has
	// not seen it.
	Module(id ident.ModuleID) CandidateModule
}

// CandidateModule groups the candidate versions of one module.
type CandidateModule interface {
	ID() ident.ModuleID
	// Versions returns every candidate component, in discovery order.
	Versions() []Component
	// Selected returns the selected component, or nil.
	Selected() Component
	// ClearSelection deselects the current component until the conflict the
	// module participates in is resolved.
	ClearSelection()
	// ReplaceWith makes selected the selection of this module. selected may
	// belong to another module when this module was replaced.
	ReplaceWith(selected Component)
}

// Component is one version of a module.
type Component interface {
	ID() ident.ModuleVersionID
	ComponentID() ident.ComponentID
	Version() string
	// Status is the metadata status: "release", "milestone", "integration".
	Status() string
	Module() CandidateModule
	Nodes() []Node
	IsSelected() bool
	IsRejected() bool
	RejectForCapabilityConflict(capability ident.Capability, reason string)
	AddCause(cause selection.Descriptor)
	Reason() selection.Reason
}

// Node is one variant of a component in the graph.
type Node interface {
	// Name is the variant name, e.g. "runtime".
	Name() string
	Component() Component
	IsSelected() bool
	// IsRoot reports whether this is the root node of the graph.
	IsRoot() bool
	// Capabilities returns the explicitly declared capabilities. A node
	// without explicit capabilities provides the implicit capability of its
	// component.
	Capabilities() []ident.Capability
	// Dependents returns the nodes with an edge to this node.
	Dependents() []Node
	// Evict removes the node from the graph.
	Evict()
}

// nodeName renders a node as "component(variant)".
func nodeName(n Node) string {
	return n.Component().ComponentID().DisplayName() + "(" + n.Name() + ")"
}

// providedCapability returns the capability with the given id provided by n.
func providedCapability(n Node, id string) (ident.Capability, bool) {
	caps := n.Capabilities()
	if len(caps) == 0 {
		implicit := ident.ImplicitCapability(n.Component().ID())
		return implicit, implicit.ID() == id
	}
	for _, c := range caps {
		if c.ID() == id {
			return c, true
		}
	}
	return ident.Capability{}, false
}

func selectedNodeCount(c Component) int {
	count := 0
	for _, n := range c.Nodes() {
		if n.IsSelected() {
			count++
		}
	}
	return count
}
