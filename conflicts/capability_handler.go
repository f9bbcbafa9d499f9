package conflicts

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
)

// CapabilitiesConflictHandler detects nodes providing the same capability
// and resolves the conflicts with a CapabilityConflictResolver.
//
// A CapabilitiesConflictHandler is not safe for concurrent use.
type CapabilitiesConflictHandler struct {
	graph    Graph
	resolver *CapabilityConflictResolver
	trackers map[string]*ConflictedNodesTracker
	// seen holds capability ids declared explicitly by a registered node.
	seen     map[string]struct{}
	queue    []string
	pending  map[string]*CapabilityConflict
	results  []CapabilityConflictResult
	onResult func(CapabilityConflictResult)
	logger   *slog.Logger
}

// NewCapabilitiesConflictHandler returns a handler for graph.
func NewCapabilitiesConflictHandler(graph Graph, resolver *CapabilityConflictResolver, opts ...Option) *CapabilitiesConflictHandler {
	cfg := newHandlerConfig(opts)
	if resolver == nil {
		resolver = NewDefaultCapabilityConflictResolver(nil, cfg.comparator)
	}
	return &CapabilitiesConflictHandler{
		graph:    graph,
		resolver: resolver,
		trackers: make(map[string]*ConflictedNodesTracker),
		seen:     make(map[string]struct{}),
		pending:  make(map[string]*CapabilityConflict),
		onResult: cfg.onCapabilityResult,
		logger:   cfg.logger,
	}
}

// HasSeenCapability reports whether a registered node declared capability
// explicitly.
func (h *CapabilitiesConflictHandler) HasSeenCapability(capability ident.Capability) bool {
	_, ok := h.seen[capability.ID()]
	return ok
}

// RegisterCandidate registers the capabilities of node and reports whether a
// conflict was found on any of them.
//
// A node without explicit capabilities provides the implicit capability of
// its component. That capability only takes part in conflict detection when
// the component has more than one selected node, or when another node
// declared the same capability explicitly.
func (h *CapabilitiesConflictHandler) RegisterCandidate(node Node) bool {
	explicit := node.Capabilities()
	for _, c := range explicit {
		h.seen[c.ID()] = struct{}{}
	}
	if len(explicit) == 0 {
		implicit := ident.ImplicitCapability(node.Component().ID())
		if selectedNodeCount(node.Component()) > 1 || h.HasSeenCapability(implicit) {
			return h.register(node, implicit, nil)
		}
		return false
	}

	found := false
	for _, c := range explicit {
		if h.register(node, c, h.implicitProviders(c)) {
			found = true
		}
	}
	return found
}

func (h *CapabilitiesConflictHandler) register(node Node, capability ident.Capability, implicitProviders []Node) bool {
	id := capability.ID()
	tracker, ok := h.trackers[id]
	if !ok {
		tracker = &ConflictedNodesTracker{}
		h.trackers[id] = tracker
	}
	tracker.pruneDeselected()
	for _, provider := range implicitProviders {
		tracker.add(provider)
	}
	if !tracker.add(node) || len(tracker.nodes) < 2 {
		return false
	}

	candidates := make([]Node, 0, len(tracker.nodes))
	var root *ident.ModuleID
	for _, n := range tracker.nodes {
		if !n.IsSelected() {
			continue
		}
		candidates = append(candidates, n)
		if n.IsRoot() {
			m := n.Component().ID().Module
			root = &m
		}
	}
	if root != nil && len(candidates) > 1 {
		// The root may transitively depend on another version of itself: those
		// nodes are not in conflict with the root.
		candidates = slices.DeleteFunc(candidates, func(n Node) bool {
			return !n.IsRoot() && n.Component().ID().Module == *root
		})
	}
	if tracker.isRepeat(candidates) {
		candidates = slices.DeleteFunc(candidates, func(n Node) bool {
			return !n.IsRoot() && !slices.ContainsFunc(n.Dependents(), Node.IsSelected)
		})
	}
	if len(candidates) < 2 || allRejected(candidates) {
		return false
	}

	tracker.previousConflictedNodes = slices.Clone(candidates)
	if existing, ok := h.pending[id]; ok {
		existing.merge(candidates)
	} else {
		h.pending[id] = newCapabilityConflict(capability.Group, capability.Name, candidates)
		h.queue = append(h.queue, id)
	}
	for _, n := range candidates {
		n.Component().Module().ClearSelection()
	}
	h.logger.Debug("capability conflict registered",
		"capability", id,
		"candidates", len(candidates))
	return true
}

// implicitProviders returns the selected nodes of the module matching the
// coordinates of capability that declare no explicit capability.
func (h *CapabilitiesConflictHandler) implicitProviders(capability ident.Capability) []Node {
	m := h.graph.Module(capability.Module())
	if m == nil || m.Selected() == nil {
		return nil
	}
	var providers []Node
	for _, n := range m.Selected().Nodes() {
		if n.IsSelected() && len(n.Capabilities()) == 0 {
			providers = append(providers, n)
		}
	}
	return providers
}

// restoreDetached gives back their own selection to the modules deselected
// for a conflict whose node left the graph before the conflict was resolved.
func restoreDetached(nodes, live []Node) {
	for _, n := range nodes {
		if slices.Contains(live, n) {
			continue
		}
		if m := n.Component().Module(); m.Selected() == nil {
			m.ReplaceWith(n.Component())
		}
	}
}

func allRejected(nodes []Node) bool {
	for _, n := range nodes {
		if !n.Component().IsRejected() {
			return false
		}
	}
	return true
}

// HasConflicts reports whether a conflict is pending.
func (h *CapabilitiesConflictHandler) HasConflicts() bool {
	return len(h.queue) > 0
}

// Results returns the outcome of every conflict resolved so far.
func (h *CapabilitiesConflictHandler) Results() []CapabilityConflictResult {
	return slices.Clone(h.results)
}

// ResolveNextConflict resolves the oldest pending conflict.
func (h *CapabilitiesConflictHandler) ResolveNextConflict() error {
	if len(h.queue) == 0 {
		return ErrNoConflict
	}
	id := h.queue[0]
	h.queue = h.queue[1:]
	conflict := h.pending[id]
	delete(h.pending, id)

	nodes := conflict.liveNodes()
	restoreDetached(conflict.Nodes, nodes)
	if len(nodes) < 2 || allRejected(nodes) {
		for _, n := range nodes {
			n.Component().Module().ReplaceWith(n.Component())
		}
		return nil
	}

	capability := ident.Capability{Group: conflict.Group, Name: conflict.Name}
	candidates := make([]Candidate, 0, len(nodes))
	for _, n := range nodes {
		provided, _ := providedCapability(n, id)
		candidates = append(candidates, Candidate{Node: n, Capability: provided})
	}

	details := NewCapabilityResolutionDetails(capability, candidates)
	if err := h.resolver.Resolve(details); err != nil {
		return fmt.Errorf("resolving conflict on capability %s: %w", id, err)
	}

	result := CapabilityConflictResult{
		Capability: capability,
		Candidates: make([]string, len(candidates)),
		Reason:     details.Reason(),
	}
	for i, c := range candidates {
		result.Candidates[i] = c.String()
	}

	if winner, ok := details.Selected(); ok {
		h.applyWinner(capability, candidates, winner, details.Reason())
		result.Winner = winner.Node.Component().ComponentID()
	} else {
		h.applyRejection(capability, candidates)
		result.Rejected = true
	}

	h.logger.Debug("capability conflict resolved",
		"capability", id,
		"candidates", strings.Join(result.Candidates, ", "),
		"rejected", result.Rejected)
	h.results = append(h.results, result)
	if h.onResult != nil {
		h.onResult(result)
	}
	return nil
}

func (h *CapabilitiesConflictHandler) applyWinner(capability ident.Capability, candidates []Candidate, winner Candidate, reason string) {
	component := winner.Node.Component()
	for _, n := range component.Nodes() {
		if n == winner.Node {
			continue
		}
		if _, provides := providedCapability(n, capability.ID()); provides {
			n.Evict()
		}
	}
	for _, c := range candidates {
		if m := c.Node.Component().Module(); m != component.Module() {
			m.ReplaceWith(component)
		}
	}
	component.Module().ReplaceWith(component)

	description := "on capability " + capability.ID()
	if reason != "" {
		description += ", " + reason
	}
	component.AddCause(selection.Descriptor{Cause: selection.ConflictResolution, Description: description})
}

func (h *CapabilitiesConflictHandler) applyRejection(capability ident.Capability, candidates []Candidate) {
	for _, c := range candidates {
		var peers []string
		for _, other := range candidates {
			if other.Node != c.Node {
				peers = append(peers, other.String())
			}
		}
		slices.Sort(peers)
		component := c.Node.Component()
		component.RejectForCapabilityConflict(capability,
			fmt.Sprintf("cannot select module with conflict on capability '%s' also provided by [%s]", c.Capability, strings.Join(peers, ", ")))
		component.Module().ReplaceWith(component)
	}
}
