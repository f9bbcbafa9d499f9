package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// SelectedComponents returns the selected components, sorted by id.
func (g *Graph) SelectedComponents() []*ComponentState {
	return g.components(func(c *ComponentState) bool { return c.IsSelected() })
}

// EvictedComponents returns the components that lost a conflict.
func (g *Graph) EvictedComponents() []*ComponentState {
	return g.components(func(c *ComponentState) bool { return c.IsEvicted() })
}

// RejectedComponents returns the components rejected by a capability
// conflict.
func (g *Graph) RejectedComponents() []*ComponentState {
	return g.components(func(c *ComponentState) bool { return c.IsRejected() })
}

func (g *Graph) components(keep func(*ComponentState) bool) []*ComponentState {
	var out []*ComponentState
	for _, m := range g.Modules() {
		for _, c := range m.versions {
			if keep(c) {
				out = append(out, c)
			}
		}
	}
	slices.SortFunc(out, func(a, b *ComponentState) int {
		return cmp.Compare(a.id.ID.String(), b.id.ID.String())
	})
	return out
}

// TransitiveDependents returns the nodes that transitively depend on n.
// The result is in breadth-first order (closest dependents first).
func (g *Graph) TransitiveDependents(n *NodeState) []*NodeState {
	result := make([]*NodeState, 0)
	visited := map[*NodeState]bool{n: true}
	queue := []*NodeState{n}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range current.incoming {
			if !visited[e.From] {
				visited[e.From] = true
				result = append(result, e.From)
				queue = append(queue, e.From)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one node to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to *NodeState) []*NodeState {
	if from == to {
		return []*NodeState{from}
	}

	type queueItem struct {
		node *NodeState
		path []*NodeState
	}
	visited := map[*NodeState]bool{from: true}
	queue := []queueItem{{node: from, path: []*NodeState{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range current.node.Dependencies() {
			if dep == to {
				return append(slices.Clone(current.path), dep)
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, queueItem{node: dep, path: append(slices.Clone(current.path), dep)})
			}
		}
	}
	return nil
}

// AllPaths finds all dependency paths from one node to another.
// This can be expensive for large graphs with many paths.
func (g *Graph) AllPaths(from, to *NodeState) [][]*NodeState {
	var result [][]*NodeState
	g.findAllPaths(from, to, []*NodeState{from}, make(map[*NodeState]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target *NodeState, path []*NodeState, visited map[*NodeState]bool, result *[][]*NodeState) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	for _, dep := range current.Dependencies() {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// Explanation describes the state of one module after resolution.
type Explanation struct {
	Module ident.ModuleID
	// Selected is the selected component, nil if none. It belongs to another
	// module when Module was replaced.
	Selected   *ComponentState
	Candidates []*ComponentState
	// Paths lists the paths from the root to the nodes of Selected.
	Paths [][]*NodeState
}

// Explain returns why module is at its current selection.
func (g *Graph) Explain(module ident.ModuleID) (*Explanation, error) {
	m := g.Lookup(module)
	if m == nil {
		return nil, fmt.Errorf("module %s not found in graph", module)
	}
	e := &Explanation{
		Module:     module,
		Selected:   m.selected,
		Candidates: m.Components(),
	}
	if m.selected != nil && g.root != nil {
		for _, n := range m.selected.nodes {
			e.Paths = append(e.Paths, g.AllPaths(g.root, n)...)
		}
	}
	return e, nil
}

// GraphStats provides statistics about the graph.
type GraphStats struct {
	Modules    int
	Components int
	Nodes      int
	Selected   int
	Evicted    int
	Rejected   int
	Replaced   int
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() GraphStats {
	var stats GraphStats
	for _, m := range g.Modules() {
		stats.Modules++
		if m.IsReplaced() {
			stats.Replaced++
		}
		for _, c := range m.versions {
			stats.Components++
			stats.Nodes += len(c.nodes)
			switch {
			case c.IsRejected():
				stats.Rejected++
			case c.IsSelected():
				stats.Selected++
			case c.IsEvicted():
				stats.Evicted++
			}
		}
	}
	return stats
}

// HasCycles returns true if the node graph contains cycles.
func (g *Graph) HasCycles() bool {
	visited := make(map[*NodeState]bool)
	recStack := make(map[*NodeState]bool)

	var hasCycle func(n *NodeState) bool
	hasCycle = func(n *NodeState) bool {
		visited[n] = true
		recStack[n] = true
		for _, dep := range n.Dependencies() {
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}
		recStack[n] = false
		return false
	}

	for _, m := range g.Modules() {
		for _, c := range m.versions {
			for _, n := range c.nodes {
				if !visited[n] && hasCycle(n) {
					return true
				}
			}
		}
	}
	return false
}
