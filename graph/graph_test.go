package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
)

// Helper to create a test graph:
//
//	org:app:1.0(runtime)
//	├── org:a:1.0(runtime)
//	│   └── org:c:1.0(runtime)
//	└── org:b:1.0(runtime)
//	    └── org:c:2.0(runtime)
func createTestGraph(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder()
	b.Root("org:app:1.0", "runtime")
	for _, coord := range []string{"org:a:1.0", "org:b:1.0", "org:c:1.0", "org:c:2.0"} {
		b.Component(coord, "")
		b.Node(coord, "runtime")
	}
	b.Edge("org:app:1.0", "runtime", "org:a:1.0", "runtime")
	b.Edge("org:app:1.0", "runtime", "org:b:1.0", "runtime")
	b.Edge("org:a:1.0", "runtime", "org:c:1.0", "runtime")
	b.Edge("org:b:1.0", "runtime", "org:c:2.0", "runtime")
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func module(g *Graph, name string) *ModuleState {
	return g.Lookup(ident.MustModuleID("org", name))
}

func TestBuild(t *testing.T) {
	g := createTestGraph(t)

	if got := g.Root().String(); got != "org:app:1.0(runtime)" {
		t.Errorf("Root() = %q", got)
	}
	if len(g.Modules()) != 4 {
		t.Errorf("expected 4 modules, got %d", len(g.Modules()))
	}

	c := module(g, "c")
	if len(c.Components()) != 2 {
		t.Fatalf("org:c should have 2 candidates, got %d", len(c.Components()))
	}
	if got := c.SelectedComponent().Version(); got != "1.0" {
		t.Errorf("first version should be selected, got %s", got)
	}
	if got := c.Version("2.0").State(); got != Selectable {
		t.Errorf("second version state = %v, want selectable", got)
	}
	if !g.Root().ComponentState().Reason().Has(selection.Root) {
		t.Errorf("root reason = %v", g.Root().ComponentState().Reason())
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	b.Root("org:app:1.0", "runtime")
	b.Component("not-a-coordinate", "")
	b.Node("org:missing:1.0", "runtime")
	b.Edge("org:app:1.0", "runtime", "org:app:1.0", "api")

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"not-a-coordinate", "unknown component org:missing:1.0", "unknown node org:app:1.0(api)"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestBuildWithoutRoot(t *testing.T) {
	b := NewBuilder()
	b.Component("org:a:1.0", "")
	if _, err := b.Build(); err == nil {
		t.Error("expected an error for a graph without root")
	}
}

func TestReplaceWithOwnVersion(t *testing.T) {
	g := createTestGraph(t)
	c := module(g, "c")
	c1, c2 := c.Version("1.0"), c.Version("2.0")

	c.ReplaceWith(c2)

	if !c2.IsSelected() || !c1.IsEvicted() {
		t.Errorf("states = %v/%v, want evicted/selected", c1.State(), c2.State())
	}
	if c1.Node("runtime").IsSelected() {
		t.Error("node of evicted component should not be selected")
	}
	if c.SelectionChanges() != 1 {
		t.Errorf("SelectionChanges() = %d, want 1", c.SelectionChanges())
	}
}

func TestReplaceWithOtherModule(t *testing.T) {
	g := createTestGraph(t)
	a, b := module(g, "a"), module(g, "b")

	a.ReplaceWith(b.SelectedComponent())

	if !a.IsReplaced() {
		t.Error("org:a should be replaced")
	}
	if !a.Version("1.0").IsEvicted() {
		t.Error("org:a:1.0 should be evicted")
	}
	if a.Selected().ID().String() != "org:b:1.0" {
		t.Errorf("Selected() = %v", a.Selected().ID())
	}
}

func TestClearSelection(t *testing.T) {
	g := createTestGraph(t)
	c := module(g, "c")

	c.ClearSelection()

	if c.Selected() != nil {
		t.Error("Selected() should be nil after ClearSelection")
	}
	if got := c.Version("1.0").State(); got != Selectable {
		t.Errorf("state = %v, want selectable", got)
	}
}

func TestSelectionGuardKeepsHighestVersion(t *testing.T) {
	g := createTestGraph(t)
	c := module(g, "c")
	c1, c2 := c.Version("1.0"), c.Version("2.0")
	c.changes = maxSelectionChanges

	c.ReplaceWith(c2)
	if !c2.IsSelected() {
		t.Fatal("a higher version should still be accepted")
	}

	c.ClearSelection()
	c.ReplaceWith(c1)
	if !c2.IsSelected() || c1.IsSelected() {
		t.Errorf("guard should keep 2.0, got %v", c.SelectedComponent())
	}
}

func TestNodeDependents(t *testing.T) {
	g := createTestGraph(t)
	c1 := module(g, "c").Version("1.0").Node("runtime")

	deps := c1.Dependents()
	if len(deps) != 1 || deps[0] != module(g, "a").Version("1.0").Node("runtime") {
		t.Errorf("Dependents() = %v", deps)
	}

	c1.Evict()
	if c1.IsSelected() || !c1.IsEvicted() {
		t.Error("evicted node should not be selected")
	}
}

func TestPath(t *testing.T) {
	g := createTestGraph(t)
	c2 := module(g, "c").Version("2.0").Node("runtime")

	path := g.Path(g.Root(), c2)
	var names []string
	for _, n := range path {
		names = append(names, n.String())
	}
	want := "org:app:1.0(runtime) -> org:b:1.0(runtime) -> org:c:2.0(runtime)"
	if got := strings.Join(names, " -> "); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	if p := g.Path(c2, g.Root()); p != nil {
		t.Errorf("expected no path, got %v", p)
	}
	if dependents := g.TransitiveDependents(c2); len(dependents) != 2 {
		t.Errorf("TransitiveDependents() = %v", dependents)
	}
}

func TestExplain(t *testing.T) {
	g := createTestGraph(t)

	e, err := g.Explain(ident.MustModuleID("org", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if e.Selected.Version() != "1.0" || len(e.Candidates) != 2 || len(e.Paths) != 1 {
		t.Errorf("unexpected explanation: %+v", e)
	}

	if _, err := g.Explain(ident.MustModuleID("org", "nope")); err == nil {
		t.Error("expected an error for an unknown module")
	}
}

func TestStats(t *testing.T) {
	g := createTestGraph(t)
	module(g, "c").ReplaceWith(module(g, "c").Version("2.0"))

	stats := g.Stats()
	want := GraphStats{Modules: 4, Components: 5, Nodes: 5, Selected: 4, Evicted: 1}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
	if got := len(g.SelectedComponents()); got != 4 {
		t.Errorf("SelectedComponents() has %d entries", got)
	}
	if got := g.EvictedComponents(); len(got) != 1 || got[0].Version() != "1.0" {
		t.Errorf("EvictedComponents() = %v", got)
	}
}

func TestRejectForCapabilityConflict(t *testing.T) {
	g := createTestGraph(t)
	a := module(g, "a").Version("1.0")

	a.RejectForCapabilityConflict(ident.MustCapability("org", "cap", "1.0"), "conflict on org:cap")

	if !a.IsRejected() || a.RejectionReason() != "conflict on org:cap" {
		t.Errorf("rejection not recorded: %q", a.RejectionReason())
	}
	if !a.Reason().Has(selection.Rejection) {
		t.Errorf("Reason() = %v", a.Reason())
	}
	if got := g.RejectedComponents(); len(got) != 1 {
		t.Errorf("RejectedComponents() = %v", got)
	}
}

func TestHasCycles(t *testing.T) {
	g := createTestGraph(t)
	if g.HasCycles() {
		t.Error("test graph has no cycle")
	}
	c1 := module(g, "c").Version("1.0").Node("runtime")
	g.Connect(c1, g.Root())
	if !g.HasCycles() {
		t.Error("expected a cycle")
	}
}

func TestToJSON(t *testing.T) {
	g := createTestGraph(t)
	data, err := g.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Root != "org:app:1.0(runtime)" {
		t.Errorf("Root = %q", report.Root)
	}
	if len(report.Modules) != 4 {
		t.Fatalf("expected 4 modules, got %d", len(report.Modules))
	}
	c := report.Modules[3]
	if c.Module != "org:c" || c.Selected != "1.0" || len(c.Components) != 2 {
		t.Errorf("unexpected module report: %+v", c)
	}
	if c.Components[1].State != "selectable" {
		t.Errorf("org:c:2.0 state = %q", c.Components[1].State)
	}
}

func TestToDOT(t *testing.T) {
	g := createTestGraph(t)
	dot := g.ToDOT()

	for _, want := range []string{
		"digraph dependencies {",
		`"org:app:1.0(runtime)" -> "org:a:1.0(runtime)";`,
		"style=bold",
		"style=dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToText(t *testing.T) {
	g := createTestGraph(t)
	module(g, "c").ReplaceWith(module(g, "c").Version("2.0"))
	text := g.ToText()

	for _, want := range []string{
		"Dependency Graph (root: org:app:1.0(runtime))",
		"Dependency Tree:",
		"├── org:a:1.0(runtime)",
		"│   └── org:c:1.0(runtime) -> org:c:2.0",
		"org:c: 2.0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}
}
