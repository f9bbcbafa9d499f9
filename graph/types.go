package graph

import (
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// maxSelectionChanges bounds how often a module may change its selection.
// Past that, a change is only accepted if it selects a higher version.
const maxSelectionChanges = 1000

// Graph is the state of a dependency graph under construction: modules, the
// candidate components of each module, the nodes (variants) of each
// component and the edges between nodes.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	root    *NodeState
	modules map[ident.ModuleID]*ModuleState
	// order is the discovery order of modules.
	order      []ident.ModuleID
	logger     *slog.Logger
	comparator version.Comparator
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for selection warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithComparator sets the version ordering used by the selection guard.
func WithComparator(cmp version.Comparator) Option {
	return func(g *Graph) {
		if cmp != nil {
			g.comparator = cmp
		}
	}
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		modules:    make(map[ident.ModuleID]*ModuleState),
		logger:     slog.New(slog.DiscardHandler),
		comparator: version.Compare,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Module implements conflicts.Graph.
func (g *Graph) Module(id ident.ModuleID) conflicts.CandidateModule {
	if m, ok := g.modules[id]; ok {
		return m
	}
	return nil
}

// Lookup returns the module with the given id, or nil.
func (g *Graph) Lookup(id ident.ModuleID) *ModuleState {
	return g.modules[id]
}

// Modules returns every module in discovery order.
func (g *Graph) Modules() []*ModuleState {
	out := make([]*ModuleState, len(g.order))
	for i, id := range g.order {
		out[i] = g.modules[id]
	}
	return out
}

// Root returns the root node, or nil before SetRoot.
func (g *Graph) Root() *NodeState { return g.root }

// AddModule returns the module with the given id, creating it if needed.
func (g *Graph) AddModule(id ident.ModuleID) *ModuleState {
	if m, ok := g.modules[id]; ok {
		return m
	}
	m := &ModuleState{id: id, graph: g}
	g.modules[id] = m
	g.order = append(g.order, id)
	return m
}

// AddComponent returns the component with the given id, creating it and its
// module if needed. The first component of a module is selected.
func (g *Graph) AddComponent(id ident.ComponentID, status string) *ComponentState {
	m := g.AddModule(id.ID.Module)
	if c := m.Version(id.ID.Version); c != nil {
		return c
	}
	c := &ComponentState{
		id:     id,
		status: status,
		module: m,
		reason: selection.NewReason(selection.Descriptor{Cause: selection.Requested}),
	}
	m.versions = append(m.versions, c)
	if m.selected == nil && len(m.versions) == 1 {
		m.selectComponent(c)
	}
	return c
}

// SetRoot makes variant of c the root node of the graph.
func (g *Graph) SetRoot(c *ComponentState, variant string) *NodeState {
	n := c.AddNode(variant)
	n.root = true
	c.reason = selection.NewReason(selection.Descriptor{Cause: selection.Root})
	g.root = n
	return n
}

// Connect adds an edge from one node to another.
func (g *Graph) Connect(from, to *NodeState) *Edge {
	for _, e := range from.outgoing {
		if e.To == to {
			return e
		}
	}
	e := &Edge{From: from, To: to}
	from.outgoing = append(from.outgoing, e)
	to.incoming = append(to.incoming, e)
	return e
}

// ModuleState holds the candidate components of one module and the current
// selection.
type ModuleState struct {
	id       ident.ModuleID
	graph    *Graph
	versions []*ComponentState
	// selected belongs to another module when this module was replaced.
	selected *ComponentState
	// previous is the selection before the last ClearSelection.
	previous *ComponentState
	changes  int
}

// ID implements conflicts.CandidateModule.
func (m *ModuleState) ID() ident.ModuleID { return m.id }

// Versions implements conflicts.CandidateModule.
func (m *ModuleState) Versions() []conflicts.Component {
	out := make([]conflicts.Component, len(m.versions))
	for i, c := range m.versions {
		out[i] = c
	}
	return out
}

// Components returns the candidate components in discovery order.
func (m *ModuleState) Components() []*ComponentState { return slices.Clone(m.versions) }

// Version returns the component with version v, or nil.
func (m *ModuleState) Version(v string) *ComponentState {
	for _, c := range m.versions {
		if c.Version() == v {
			return c
		}
	}
	return nil
}

// Selected implements conflicts.CandidateModule.
func (m *ModuleState) Selected() conflicts.Component {
	if m.selected == nil {
		return nil
	}
	return m.selected
}

// SelectedComponent returns the selected component, or nil.
func (m *ModuleState) SelectedComponent() *ComponentState { return m.selected }

// IsReplaced reports whether the selection belongs to another module.
func (m *ModuleState) IsReplaced() bool {
	return m.selected != nil && m.selected.module != m
}

// SelectionChanges returns how often the selection changed.
func (m *ModuleState) SelectionChanges() int { return m.changes }

// ClearSelection implements conflicts.CandidateModule.
func (m *ModuleState) ClearSelection() {
	if m.selected != nil {
		m.previous = m.selected
	}
	for _, c := range m.versions {
		if c.state == Selected {
			c.state = Selectable
		}
	}
	m.selected = nil
}

// ReplaceWith implements conflicts.CandidateModule.
func (m *ModuleState) ReplaceWith(selected conflicts.Component) {
	c, ok := selected.(*ComponentState)
	if !ok {
		panic("graph: ReplaceWith called with a foreign component")
	}
	c = m.guardSelection(c)
	m.ClearSelection()
	if c.module != m {
		for _, v := range m.versions {
			v.state = Evicted
		}
		m.selected = c
		return
	}
	m.selectComponent(c)
}

// guardSelection counts a selection change. Past maxSelectionChanges it
// returns the current selection unless c is a higher version.
func (m *ModuleState) guardSelection(c *ComponentState) *ComponentState {
	current := m.selected
	if current == nil {
		current = m.previous
	}
	if current == nil || current == c {
		return c
	}
	m.changes++
	if m.changes <= maxSelectionChanges || m.graph.comparator(c.Version(), current.Version()) > 0 {
		return c
	}
	m.graph.logger.Warn("module changed selection too often, keeping highest version",
		"module", m.id.String(),
		"selected", current.Version(),
		"ignored", c.Version(),
		"changes", m.changes)
	return current
}

func (m *ModuleState) selectComponent(c *ComponentState) {
	for _, v := range m.versions {
		v.state = Evicted
	}
	c.state = Selected
	m.selected = c
}

// ComponentStatus is the lifecycle state of a component.
type ComponentStatus int

const (
	// Selectable components may still be selected.
	Selectable ComponentStatus = iota
	// Selected is the component chosen for its module.
	Selected
	// Evicted components lost a conflict.
	Evicted
)

func (s ComponentStatus) String() string {
	switch s {
	case Selectable:
		return "selectable"
	case Selected:
		return "selected"
	case Evicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// ComponentState is one version of a module.
type ComponentState struct {
	id        ident.ComponentID
	status    string
	module    *ModuleState
	nodes     []*NodeState
	state     ComponentStatus
	reason    selection.Reason
	rejection string
}

// ID implements conflicts.Component.
func (c *ComponentState) ID() ident.ModuleVersionID { return c.id.ID }

// ComponentID implements conflicts.Component.
func (c *ComponentState) ComponentID() ident.ComponentID { return c.id }

// Version implements conflicts.Component.
func (c *ComponentState) Version() string { return c.id.ID.Version }

// Status implements conflicts.Component.
func (c *ComponentState) Status() string { return c.status }

// Module implements conflicts.Component.
func (c *ComponentState) Module() conflicts.CandidateModule { return c.module }

// ModuleState returns the module owning c.
func (c *ComponentState) ModuleState() *ModuleState { return c.module }

// Nodes implements conflicts.Component.
func (c *ComponentState) Nodes() []conflicts.Node {
	out := make([]conflicts.Node, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n
	}
	return out
}

// NodeStates returns the nodes of c in creation order.
func (c *ComponentState) NodeStates() []*NodeState { return slices.Clone(c.nodes) }

// Node returns the node for variant, or nil.
func (c *ComponentState) Node(variant string) *NodeState {
	for _, n := range c.nodes {
		if n.name == variant {
			return n
		}
	}
	return nil
}

// AddNode returns the node for variant, creating it with capabilities.
func (c *ComponentState) AddNode(variant string, capabilities ...ident.Capability) *NodeState {
	if n := c.Node(variant); n != nil {
		return n
	}
	n := &NodeState{name: variant, component: c, capabilities: capabilities}
	c.nodes = append(c.nodes, n)
	return n
}

// State returns the lifecycle state.
func (c *ComponentState) State() ComponentStatus { return c.state }

// IsSelected implements conflicts.Component.
func (c *ComponentState) IsSelected() bool { return c.state == Selected }

// IsEvicted reports whether c lost a conflict.
func (c *ComponentState) IsEvicted() bool { return c.state == Evicted }

// IsPending reports whether c was the selection of its module before a
// conflict cleared it, and the conflict is not resolved yet.
func (c *ComponentState) IsPending() bool {
	return c.state == Selectable && c.module.selected == nil && c.module.previous == c
}

func (c *ComponentState) attached() bool { return c.IsSelected() || c.IsPending() }

// IsRejected implements conflicts.Component.
func (c *ComponentState) IsRejected() bool { return c.rejection != "" }

// RejectionReason returns why c was rejected.
func (c *ComponentState) RejectionReason() string { return c.rejection }

// RejectForCapabilityConflict implements conflicts.Component.
func (c *ComponentState) RejectForCapabilityConflict(capability ident.Capability, reason string) {
	c.rejection = reason
	c.reason = c.reason.With(selection.Descriptor{Cause: selection.Rejection, Description: reason})
}

// AddCause implements conflicts.Component.
func (c *ComponentState) AddCause(cause selection.Descriptor) {
	c.reason = c.reason.With(cause)
}

// Reason implements conflicts.Component.
func (c *ComponentState) Reason() selection.Reason { return c.reason }

// String returns the display name.
func (c *ComponentState) String() string { return c.id.DisplayName() }

// NodeState is one variant of a component.
type NodeState struct {
	name         string
	component    *ComponentState
	capabilities []ident.Capability
	root         bool
	evicted      bool
	outgoing     []*Edge
	incoming     []*Edge
}

// Name implements conflicts.Node.
func (n *NodeState) Name() string { return n.name }

// Component implements conflicts.Node.
func (n *NodeState) Component() conflicts.Component { return n.component }

// ComponentState returns the owning component.
func (n *NodeState) ComponentState() *ComponentState { return n.component }

// IsSelected implements conflicts.Node. A node is part of the graph while it
// is not evicted, its component is attached, and it is the root or one of
// its dependents is attached too. The nodes of a module deselected by a
// pending conflict stay selected until the conflict is resolved.
func (n *NodeState) IsSelected() bool {
	if !n.attached() {
		return false
	}
	if n.root {
		return true
	}
	for _, e := range n.incoming {
		if e.From.attached() {
			return true
		}
	}
	return false
}

func (n *NodeState) attached() bool {
	return !n.evicted && n.component.attached()
}

// IsRoot implements conflicts.Node.
func (n *NodeState) IsRoot() bool { return n.root }

// IsEvicted reports whether the node was evicted.
func (n *NodeState) IsEvicted() bool { return n.evicted }

// Capabilities implements conflicts.Node.
func (n *NodeState) Capabilities() []ident.Capability { return slices.Clone(n.capabilities) }

// Dependents implements conflicts.Node.
func (n *NodeState) Dependents() []conflicts.Node {
	var out []conflicts.Node
	for _, e := range n.incoming {
		if !slices.Contains(out, conflicts.Node(e.From)) {
			out = append(out, e.From)
		}
	}
	return out
}

// Dependencies returns the nodes this node has an edge to.
func (n *NodeState) Dependencies() []*NodeState {
	out := make([]*NodeState, len(n.outgoing))
	for i, e := range n.outgoing {
		out[i] = e.To
	}
	return out
}

// Evict implements conflicts.Node.
func (n *NodeState) Evict() { n.evicted = true }

// String renders "component(variant)".
func (n *NodeState) String() string {
	return n.component.id.DisplayName() + "(" + n.name + ")"
}

// Edge is a dependency from one node to another.
type Edge struct {
	From *NodeState
	To   *NodeState
}

var (
	_ conflicts.Graph           = (*Graph)(nil)
	_ conflicts.CandidateModule = (*ModuleState)(nil)
	_ conflicts.Component       = (*ComponentState)(nil)
	_ conflicts.Node            = (*NodeState)(nil)
)
