package conflicts

import (
	"slices"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// CapabilityConflict is a pending conflict between nodes providing the same
// capability.
type CapabilityConflict struct {
	Group string
	Name  string
	Nodes []Node

	// nodeToDependentNodes is computed on first use, once the participating
	// modules have been deselected.
	nodeToDependentNodes map[Node][]Node
}

func newCapabilityConflict(group, name string, nodes []Node) *CapabilityConflict {
	return &CapabilityConflict{Group: group, Name: name, Nodes: nodes}
}

// ID returns the versionless capability id "group:name".
func (c *CapabilityConflict) ID() string { return c.Group + ":" + c.Name }

func (c *CapabilityConflict) dependents(n Node) []Node {
	if c.nodeToDependentNodes == nil {
		c.nodeToDependentNodes = make(map[Node][]Node, len(c.Nodes))
		for _, node := range c.Nodes {
			c.nodeToDependentNodes[node] = node.Dependents()
		}
	}
	return c.nodeToDependentNodes[n]
}

// merge adds nodes not yet part of the conflict.
func (c *CapabilityConflict) merge(nodes []Node) {
	for _, n := range nodes {
		if !slices.Contains(c.Nodes, n) {
			c.Nodes = append(c.Nodes, n)
		}
	}
	c.nodeToDependentNodes = nil
}

// liveNodes returns the nodes still part of the graph: selected nodes that
// are the root or still have a selected dependent.
func (c *CapabilityConflict) liveNodes() []Node {
	var live []Node
	for _, n := range c.Nodes {
		if n.IsSelected() && (n.IsRoot() || slices.ContainsFunc(c.dependents(n), Node.IsSelected)) {
			live = append(live, n)
		}
	}
	return live
}

// ConflictedNodesTracker tracks the nodes providing one capability.
type ConflictedNodesTracker struct {
	nodes []Node
	// previousConflictedNodes is the candidate set of the last conflict
	// registered for this capability.
	previousConflictedNodes []Node
}

// add appends n and reports whether it was new.
func (t *ConflictedNodesTracker) add(n Node) bool {
	if slices.Contains(t.nodes, n) {
		return false
	}
	t.nodes = append(t.nodes, n)
	return true
}

func (t *ConflictedNodesTracker) pruneDeselected() {
	t.nodes = slices.DeleteFunc(t.nodes, func(n Node) bool { return !n.IsSelected() })
}

// Nodes returns the tracked nodes.
func (t *ConflictedNodesTracker) Nodes() []Node { return slices.Clone(t.nodes) }

// isRepeat reports whether candidates is the same set as the previous
// conflict on this capability.
func (t *ConflictedNodesTracker) isRepeat(candidates []Node) bool {
	if len(candidates) != len(t.previousConflictedNodes) {
		return false
	}
	for _, n := range candidates {
		if !slices.Contains(t.previousConflictedNodes, n) {
			return false
		}
	}
	return true
}

// Candidate is a node taking part in a capability conflict, along with the
// capability it provides.
type Candidate struct {
	Node       Node
	Capability ident.Capability
}

// String renders the node as "component(variant)".
func (c Candidate) String() string { return nodeName(c.Node) }

// matchesNotation reports whether notation designates the candidate:
// "group:name", "group:name:version" or a project path.
func (c Candidate) matchesNotation(notation string) bool {
	id := c.Node.Component().ComponentID()
	switch {
	case id.IsProject() && notation == id.ProjectPath:
		return true
	case notation == id.ID.Module.String():
		return true
	case notation == id.ID.String():
		return true
	}
	return false
}
