package conflicts_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/graph"
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
)

// capabilityGraph builds:
//
//	org:app:1.0(runtime)
//	├── org:a:1.0(runtime) provides org:cap:1.0
//	└── org:b:1.0(runtime) provides org:cap:2.0
func capabilityGraph(t *testing.T) (*graph.Graph, *graph.NodeState, *graph.NodeState) {
	t.Helper()
	b := newBuilder()
	a := dependency(b, "org:a:1.0", "", "runtime", "org:cap:1.0")
	bn := dependency(b, "org:b:1.0", "", "runtime", "org:cap:2.0")
	return build(t, b), a, bn
}

func rule(action func(*conflicts.RuleDetails) error) []conflicts.CapabilityResolutionRule {
	return []conflicts.CapabilityResolutionRule{{Group: "org", Name: "cap", Action: action}}
}

func newCapabilityHandler(g *graph.Graph, rules []conflicts.CapabilityResolutionRule, opts ...conflicts.Option) *conflicts.CapabilitiesConflictHandler {
	return conflicts.NewCapabilitiesConflictHandler(g, conflicts.NewDefaultCapabilityConflictResolver(rules, nil), opts...)
}

func TestCapabilityConflictSelectHighestVersion(t *testing.T) {
	g, a, b := capabilityGraph(t)
	var results []conflicts.CapabilityConflictResult
	h := newCapabilityHandler(g, rule(func(d *conflicts.RuleDetails) error {
		d.SelectHighestVersion()
		return nil
	}), conflicts.WithCapabilityListener(func(r conflicts.CapabilityConflictResult) { results = append(results, r) }))

	assert.False(t, h.RegisterCandidate(a))
	assert.True(t, h.RegisterCandidate(b))
	assert.True(t, h.HasConflicts())
	assert.Nil(t, g.Lookup(moduleID("a")).SelectedComponent(), "participant modules are deselected")
	assert.Nil(t, g.Lookup(moduleID("b")).SelectedComponent(), "participant modules are deselected")
	assert.True(t, a.IsSelected(), "nodes stay in the graph until the conflict is resolved")
	assert.True(t, b.IsSelected(), "nodes stay in the graph until the conflict is resolved")

	require.NoError(t, h.ResolveNextConflict())
	assert.False(t, h.HasConflicts())

	am, bm := g.Lookup(moduleID("a")), g.Lookup(moduleID("b"))
	winner := bm.SelectedComponent()
	require.NotNil(t, winner)
	assert.Equal(t, "org:b:1.0", winner.ID().String())
	assert.Same(t, winner, am.SelectedComponent(), "loser module is replaced with the winner")
	assert.True(t, b.IsSelected())
	assert.False(t, a.IsSelected())
	assert.Contains(t, winner.Reason().Descriptors(), selection.Descriptor{
		Cause:       selection.ConflictResolution,
		Description: "on capability org:cap, highest capability version 2.0",
	})

	require.Len(t, results, 1)
	assert.Equal(t, conflicts.CapabilityConflictResult{
		Capability: ident.Capability{Group: "org", Name: "cap"},
		Candidates: []string{"org:a:1.0(runtime)", "org:b:1.0(runtime)"},
		Winner:     winner.ComponentID(),
		Reason:     "highest capability version 2.0",
	}, results[0])
	assert.Equal(t, results, h.Results())
}

func TestCapabilityConflictWithoutRuleRejectsCandidates(t *testing.T) {
	g, a, b := capabilityGraph(t)
	h := newCapabilityHandler(g, nil)

	h.RegisterCandidate(a)
	require.True(t, h.RegisterCandidate(b))
	require.NoError(t, h.ResolveNextConflict())

	ac, bc := a.ComponentState(), b.ComponentState()
	assert.True(t, ac.IsRejected())
	assert.True(t, bc.IsRejected())
	assert.Equal(t, "cannot select module with conflict on capability 'org:cap:1.0' also provided by [org:b:1.0(runtime)]", ac.RejectionReason())
	assert.Equal(t, "cannot select module with conflict on capability 'org:cap:2.0' also provided by [org:a:1.0(runtime)]", bc.RejectionReason())
	assert.True(t, ac.IsSelected(), "rejected modules keep their own component")
	assert.True(t, bc.IsSelected(), "rejected modules keep their own component")

	results := h.Results()
	require.Len(t, results, 1)
	assert.True(t, results[0].Rejected)
}

func TestCapabilityConflictSelectNotation(t *testing.T) {
	g, a, b := capabilityGraph(t)
	h := newCapabilityHandler(g, rule(func(d *conflicts.RuleDetails) error {
		d.Because("a is the maintained fork")
		return d.SelectNotation("org:a")
	}))

	h.RegisterCandidate(a)
	h.RegisterCandidate(b)
	require.NoError(t, h.ResolveNextConflict())

	assert.True(t, a.IsSelected())
	assert.Same(t, a.ComponentState(), g.Lookup(moduleID("b")).SelectedComponent())
	assert.True(t, a.ComponentState().Reason().IsConflictResolution())
	assert.Equal(t, "a is the maintained fork", h.Results()[0].Reason)
}

func TestCapabilityRuleSelectNotationInvalid(t *testing.T) {
	g, a, b := capabilityGraph(t)
	h := newCapabilityHandler(g, rule(func(d *conflicts.RuleDetails) error {
		return d.SelectNotation("org:zzz")
	}))

	h.RegisterCandidate(a)
	h.RegisterCandidate(b)
	err := h.ResolveNextConflict()

	var userErr *conflicts.InvalidUserCodeError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "org:cap", userErr.Capability)
	assert.Contains(t, err.Error(), "selected candidate 'org:zzz' is not a valid candidate, valid candidates are: [org:a:1.0, org:b:1.0]")
}

func TestCapabilityRuleErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		action func(*conflicts.RuleDetails) error
		check  func(t *testing.T, err error)
	}{
		{
			name:   "returned error",
			action: func(*conflicts.RuleDetails) error { return boom },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, boom)
			},
		},
		{
			name:   "panic",
			action: func(*conflicts.RuleDetails) error { panic("kaboom") },
			check: func(t *testing.T, err error) {
				var pe *conflicts.PanicError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "kaboom", pe.Value)
			},
		},
		{
			name:   "nil action",
			action: nil,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "rule has no action")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, a, b := capabilityGraph(t)
			h := newCapabilityHandler(g, rule(tt.action))
			h.RegisterCandidate(a)
			h.RegisterCandidate(b)

			err := h.ResolveNextConflict()
			var userErr *conflicts.InvalidUserCodeError
			require.ErrorAs(t, err, &userErr)
			tt.check(t, err)
		})
	}
}

func TestCapabilityRuleNarrowsTies(t *testing.T) {
	b := newBuilder()
	a := dependency(b, "org:a:1.0", "", "runtime", "org:cap:2.0")
	bn := dependency(b, "org:b:1.0", "", "runtime", "org:cap:2.0")
	c := dependency(b, "org:c:1.0", "", "runtime", "org:cap:1.0")
	g := build(t, b)

	var secondRuleSaw []string
	rules := []conflicts.CapabilityResolutionRule{
		{Group: "org", Name: "cap", Action: func(d *conflicts.RuleDetails) error {
			d.SelectHighestVersion()
			return nil
		}},
		{Group: "org", Name: "cap", Action: func(d *conflicts.RuleDetails) error {
			for _, candidate := range d.Candidates() {
				secondRuleSaw = append(secondRuleSaw, candidate.String())
			}
			return d.Select(d.Candidates()[1])
		}},
	}
	h := newCapabilityHandler(g, rules)

	h.RegisterCandidate(a)
	h.RegisterCandidate(bn)
	require.NoError(t, h.ResolveNextConflict())
	// org:c registers after the first conflict was resolved.
	require.True(t, h.RegisterCandidate(c))
	require.NoError(t, h.ResolveNextConflict())

	assert.Equal(t, []string{"org:a:1.0(runtime)", "org:b:1.0(runtime)"}, secondRuleSaw)
	assert.True(t, bn.IsSelected())
	assert.False(t, c.IsSelected())
}

func TestCapabilityWinnerEvictsSiblingNodes(t *testing.T) {
	b := newBuilder()
	runtime := dependency(b, "org:a:1.0", "", "runtime", "org:cap:1.0")
	api := b.Node("org:a:1.0", "api", "org:cap:1.0")
	b.Edge(rootCoordinates, "runtime", "org:a:1.0", "api")
	g := build(t, b)

	h := newCapabilityHandler(g, rule(func(d *conflicts.RuleDetails) error {
		for _, c := range d.Candidates() {
			if c.Node.Name() == "runtime" {
				return d.Select(c)
			}
		}
		return errors.New("no runtime candidate")
	}))

	assert.False(t, h.RegisterCandidate(runtime))
	assert.True(t, h.RegisterCandidate(api))
	require.NoError(t, h.ResolveNextConflict())

	assert.True(t, runtime.IsSelected())
	assert.True(t, api.IsEvicted())
	assert.False(t, api.IsSelected())
}

func TestImplicitCapabilityRule(t *testing.T) {
	t.Run("single node without explicit capabilities is ignored", func(t *testing.T) {
		b := newBuilder()
		n := dependency(b, "org:x:1.0", "", "runtime")
		g := build(t, b)
		h := newCapabilityHandler(g, nil)

		assert.False(t, h.RegisterCandidate(n))
		assert.False(t, h.HasSeenCapability(ident.MustCapability("org", "x", "")))
		assert.False(t, h.HasConflicts())
	})

	t.Run("explicit declaration conflicts with the implicit provider", func(t *testing.T) {
		b := newBuilder()
		x := dependency(b, "org:x:1.0", "", "runtime")
		y := dependency(b, "org:y:1.0", "", "runtime", "org:x:1.0")
		g := build(t, b)
		h := newCapabilityHandler(g, nil)

		assert.False(t, h.RegisterCandidate(x))
		assert.True(t, h.RegisterCandidate(y))
		assert.True(t, h.HasSeenCapability(ident.MustCapability("org", "x", "")))
	})

	t.Run("implicit capability counts once seen explicitly", func(t *testing.T) {
		b := newBuilder()
		y := dependency(b, "org:y:1.0", "", "runtime", "org:x:1.0")
		g := build(t, b)
		h := newCapabilityHandler(g, nil)

		assert.False(t, h.RegisterCandidate(y), "org:x is not in the graph yet")
		x := dependency(b, "org:x:1.0", "", "runtime")
		assert.True(t, h.RegisterCandidate(x))
	})

	t.Run("several selected nodes of one component", func(t *testing.T) {
		b := newBuilder()
		runtime := dependency(b, "org:x:1.0", "", "runtime")
		api := b.Node("org:x:1.0", "api")
		b.Edge(rootCoordinates, "runtime", "org:x:1.0", "api")
		g := build(t, b)
		h := newCapabilityHandler(g, nil)

		assert.False(t, h.RegisterCandidate(runtime))
		assert.True(t, h.RegisterCandidate(api))
	})
}

func TestRootModuleException(t *testing.T) {
	b := newBuilder()
	api := b.Node(rootCoordinates, "api")
	b.Edge(rootCoordinates, "runtime", rootCoordinates, "api")
	g := build(t, b)
	h := newCapabilityHandler(g, nil)

	assert.False(t, h.RegisterCandidate(api))
	assert.False(t, h.RegisterCandidate(g.Root()))
	assert.False(t, h.HasConflicts())
}

func TestRejectedCandidatesDoNotConflictAgain(t *testing.T) {
	g, a, b := capabilityGraph(t)
	h := newCapabilityHandler(g, nil)
	h.RegisterCandidate(a)
	h.RegisterCandidate(b)
	require.NoError(t, h.ResolveNextConflict())
	require.True(t, a.ComponentState().IsRejected())

	h2 := newCapabilityHandler(g, nil)
	h2.RegisterCandidate(a)
	assert.False(t, h2.RegisterCandidate(b), "all candidates are already rejected")
}

func TestResolveWithNothingPending(t *testing.T) {
	g, _, _ := capabilityGraph(t)
	h := newCapabilityHandler(g, nil)
	assert.ErrorIs(t, h.ResolveNextConflict(), conflicts.ErrNoConflict)
}

func TestDetachedProvidersDoNotConflict(t *testing.T) {
	b := newBuilder()
	b.Component("org:a:1.0", "")
	an := b.Node("org:a:1.0", "runtime", "org:cap:1.0")
	b.Component("org:b:1.0", "")
	bn := b.Node("org:b:1.0", "runtime", "org:cap:2.0")
	g := build(t, b)
	h := newCapabilityHandler(g, nil)

	assert.False(t, an.IsSelected(), "no dependent links org:a to the graph")
	assert.False(t, h.RegisterCandidate(an))
	assert.False(t, h.RegisterCandidate(bn))
	assert.False(t, h.HasConflicts())

	assert.NotNil(t, g.Lookup(moduleID("a")).SelectedComponent())
	assert.NotNil(t, g.Lookup(moduleID("b")).SelectedComponent())
}

func TestStaleConflictIsRestored(t *testing.T) {
	b := newBuilder()
	dependency(b, "org:p:1.0", "", "runtime")
	dependency(b, "org:q:1.0", "", "runtime")
	b.Component("org:a:1.0", "")
	an := b.Node("org:a:1.0", "runtime", "org:cap:1.0")
	b.Edge("org:p:1.0", "runtime", "org:a:1.0", "runtime")
	bn := dependency(b, "org:b:1.0", "", "runtime", "org:cap:1.0")
	g := build(t, b)
	h := newCapabilityHandler(g, nil)

	h.RegisterCandidate(an)
	require.True(t, h.RegisterCandidate(bn))

	// org:p is replaced before the conflict is resolved: org:a loses its only
	// dependent and leaves the graph, so only org:b is left.
	p, q := g.Lookup(moduleID("p")), g.Lookup(moduleID("q"))
	p.ReplaceWith(q.SelectedComponent())
	require.False(t, an.IsSelected())

	require.NoError(t, h.ResolveNextConflict())

	assert.True(t, bn.IsSelected())
	assert.False(t, bn.ComponentState().IsRejected())
	assert.Same(t, an.ComponentState(), g.Lookup(moduleID("a")).SelectedComponent(), "detached modules get their selection back")
	assert.False(t, an.IsSelected())
	assert.Empty(t, h.Results())
}

// threeProviders builds a graph where org:a, org:b and org:c provide org:cap
// at versions 1.0, 2.0 and 3.0.
func threeProviders(t *testing.T) (*graph.Graph, []*graph.NodeState) {
	t.Helper()
	b := newBuilder()
	nodes := []*graph.NodeState{
		dependency(b, "org:a:1.0", "", "runtime", "org:cap:1.0"),
		dependency(b, "org:b:1.0", "", "runtime", "org:cap:2.0"),
		dependency(b, "org:c:1.0", "", "runtime", "org:cap:3.0"),
	}
	return build(t, b), nodes
}

func TestCapabilityConflictMergesLateProvider(t *testing.T) {
	g, nodes := threeProviders(t)
	h := newCapabilityHandler(g, rule(func(d *conflicts.RuleDetails) error {
		d.SelectHighestVersion()
		return nil
	}))

	assert.False(t, h.RegisterCandidate(nodes[0]))
	assert.True(t, h.RegisterCandidate(nodes[1]))
	assert.True(t, h.RegisterCandidate(nodes[2]), "a provider registered while the conflict is pending joins it")

	require.NoError(t, h.ResolveNextConflict())
	assert.False(t, h.HasConflicts(), "the late provider does not open a second conflict")

	results := h.Results()
	require.Len(t, results, 1)
	assert.Equal(t, []string{"org:a:1.0(runtime)", "org:b:1.0(runtime)", "org:c:1.0(runtime)"}, results[0].Candidates)
	assert.Equal(t, "highest capability version 3.0", results[0].Reason)

	winner := nodes[2].ComponentState()
	var selected []string
	for _, n := range nodes {
		if n.IsSelected() {
			selected = append(selected, n.String())
		}
	}
	assert.Equal(t, []string{"org:c:1.0(runtime)"}, selected)
	for _, name := range []string{"a", "b", "c"} {
		assert.Same(t, winner, g.Lookup(moduleID(name)).SelectedComponent(), "org:%s", name)
	}
}

func TestCapabilityConflictRepeatedCandidates(t *testing.T) {
	b := newBuilder()
	a := dependency(b, "org:a:1.0", "", "runtime", "org:cap:1.0")
	bn := dependency(b, "org:b:1.0", "", "runtime", "org:cap:2.0")
	b.Component("org:c:1.0", "")
	detached := b.Node("org:c:1.0", "runtime", "org:cap:3.0")
	g := build(t, b)
	h := newCapabilityHandler(g, nil)

	h.RegisterCandidate(a)
	require.True(t, h.RegisterCandidate(bn))
	// org:c is not part of the graph: registering it yields the same
	// candidates as the pending conflict.
	assert.True(t, h.RegisterCandidate(detached))
	require.NoError(t, h.ResolveNextConflict())
	assert.False(t, h.HasConflicts())

	results := h.Results()
	require.Len(t, results, 1)
	assert.Equal(t, []string{"org:a:1.0(runtime)", "org:b:1.0(runtime)"}, results[0].Candidates)
	assert.False(t, detached.ComponentState().IsRejected())
}
