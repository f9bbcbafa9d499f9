// Package scenario reads resolution scenarios written in Starlark syntax.
//
// A scenario declares the components of a dependency graph, their variants
// and capabilities, the edges between variants, module replacements,
// capability resolution rules and exclude expressions:
//
//	root(coordinates = "org:app:1.0")
//	component(coordinates = "org:lib:1.0")
//	component(coordinates = "org:lib:2.0", status = "integration")
//	node(component = "org:lib:1.0", capabilities = ["org:logging:1.0"])
//	depends(source = "org:app:1.0", target = "org:lib:1.0")
//	replace(module = "org:old", by = "org:lib", reason = "renamed")
//	capability_rule(capability = "org:logging", highest = True)
//	strategy(conflicts = "latest", versions = "default")
//	exclude_any(name = "tests", groups = ["org.test"], modules = ["junit"])
//	exclude_all(name = "narrow", of = ["tests"], module_ids = ["org.test:junit"])
//	probe(modules = ["org.test:junit", "org:lib"])
//
// Only keyword arguments are recognized. A component declared without any
// node gets a single "runtime" node.
package scenario

import "github.com/albertocavalcante/go-resolveengine/ident"

// DefaultVariant is the variant used when a statement does not name one.
const DefaultVariant = "runtime"

// Position represents a source position for diagnostics.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Path         string
	Root         *Component
	Components   []*Component
	Nodes        []*Node
	Edges        []*Edge
	Replacements []*Replacement
	Rules        []*CapabilityRule
	Strategy     *Strategy
	Excludes     []*ExcludeDecl
	Probes       []ident.ModuleID
}

// Statement is implemented by every scenario statement.
type Statement interface {
	Position() Position
	isStatement()
}

// Component declares a component. The root component is also listed in
// Scenario.Components.
type Component struct {
	Pos         Position
	Coordinates ident.ModuleVersionID
	Status      string
	Project     string
	// Variant is the root node variant; only set on the root component.
	Variant string
}

func (c *Component) Position() Position { return c.Pos }
func (c *Component) isStatement()       {}

// Node declares a variant of a component.
type Node struct {
	Pos          Position
	Component    ident.ModuleVersionID
	Variant      string
	Capabilities []ident.Capability
}

func (n *Node) Position() Position { return n.Pos }
func (n *Node) isStatement()       {}

// Edge is a dependency from one variant to another.
type Edge struct {
	Pos           Position
	Source        ident.ModuleVersionID
	SourceVariant string
	Target        ident.ModuleVersionID
	TargetVariant string
}

func (e *Edge) Position() Position { return e.Pos }
func (e *Edge) isStatement()       {}

// Replacement declares that Module is replaced by By.
type Replacement struct {
	Pos    Position
	Module ident.ModuleID
	By     ident.ModuleID
	Reason string
}

func (r *Replacement) Position() Position { return r.Pos }
func (r *Replacement) isStatement()       {}

// CapabilityRule resolves conflicts on a capability, either by selecting a
// candidate by notation or by picking the highest capability version.
type CapabilityRule struct {
	Pos        Position
	Capability ident.ModuleID
	Select     string
	Highest    bool
	Because    string
}

func (r *CapabilityRule) Position() Position { return r.Pos }
func (r *CapabilityRule) isStatement()       {}

// Strategy names the module conflict strategy and the version comparator.
type Strategy struct {
	Pos       Position
	Conflicts string
	Versions  string
}

func (s *Strategy) Position() Position { return s.Pos }
func (s *Strategy) isStatement()       {}

// Conflict strategies.
const (
	StrategyLatest        = "latest"
	StrategyFail          = "fail"
	StrategyPreferProject = "prefer_project"
)

// Version comparators.
const (
	VersionsDefault  = "default"
	VersionsSemantic = "semver"
)

// ExcludeDecl is a named exclude expression: the union (exclude_any) or
// intersection (exclude_all) of its atoms and of previously declared
// expressions.
type ExcludeDecl struct {
	Pos       Position
	Name      string
	All       bool
	Groups    []string
	Modules   []string
	ModuleIDs []ident.ModuleID
	Of        []string
}

func (d *ExcludeDecl) Position() Position { return d.Pos }
func (d *ExcludeDecl) isStatement()       {}

// Probe lists modules evaluated against every exclude expression.
type Probe struct {
	Pos     Position
	Modules []ident.ModuleID
}

func (p *Probe) Position() Position { return p.Pos }
func (p *Probe) isStatement()       {}
