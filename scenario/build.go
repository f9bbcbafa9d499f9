package scenario

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/excludes"
	"github.com/albertocavalcante/go-resolveengine/graph"
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// Graph builds the dependency graph described by the scenario. Components
// are added in declaration order, so the first declared version of a module
// is the initially selected one.
func (s *Scenario) Graph(opts ...graph.Option) (*graph.Graph, error) {
	if s.Root == nil {
		return nil, errors.New("scenario has no root")
	}
	opts = append([]graph.Option{graph.WithComparator(s.Comparator())}, opts...)
	b := graph.NewBuilder(opts...)

	withNodes := make(map[ident.ModuleVersionID]bool)
	for _, n := range s.Nodes {
		withNodes[n.Component] = true
	}

	for _, c := range s.Components {
		switch {
		case c == s.Root:
			b.Root(c.Coordinates.String(), c.Variant)
			withNodes[c.Coordinates] = true
		case c.Project != "":
			b.Project(c.Project, c.Coordinates.String())
		default:
			b.Component(c.Coordinates.String(), c.Status)
		}
	}
	for _, n := range s.Nodes {
		if n.Component == s.Root.Coordinates && n.Variant == s.Root.Variant {
			if len(n.Capabilities) > 0 {
				return nil, &ParseError{Pos: n.Pos, Message: "the root variant cannot declare capabilities"}
			}
			continue
		}
		caps := make([]string, len(n.Capabilities))
		for i, c := range n.Capabilities {
			caps[i] = c.String()
		}
		b.Node(n.Component.String(), n.Variant, caps...)
	}
	for _, c := range s.Components {
		if !withNodes[c.Coordinates] {
			b.Node(c.Coordinates.String(), DefaultVariant)
		}
	}
	for _, e := range s.Edges {
		b.Edge(e.Source.String(), e.SourceVariant, e.Target.String(), e.TargetVariant)
	}
	return b.Build()
}

// Comparator returns the version comparator selected by strategy().
func (s *Scenario) Comparator() version.Comparator {
	if s.Strategy != nil && s.Strategy.Versions == VersionsSemantic {
		return version.Semantic
	}
	return version.Compare
}

// ModuleResolver returns the module conflict resolver selected by
// strategy(). The default is the latest version.
func (s *Scenario) ModuleResolver() conflicts.ModuleConflictResolver {
	cmp := s.Comparator()
	latest := conflicts.LatestModuleConflictResolver{Comparator: cmp}
	if s.Strategy == nil {
		return latest
	}
	switch s.Strategy.Conflicts {
	case StrategyFail:
		return conflicts.FailOnVersionConflictResolver{Comparator: cmp}
	case StrategyPreferProject:
		return conflicts.NewCompositeConflictResolver(conflicts.PreferProjectModulesResolver{}, latest)
	default:
		return latest
	}
}

// ReplacementRules returns the declared module replacements.
func (s *Scenario) ReplacementRules() *conflicts.Replacements {
	r := conflicts.NewReplacements()
	for _, decl := range s.Replacements {
		r.Add(decl.Module, decl.By, decl.Reason)
	}
	return r
}

// CapabilityRules converts capability_rule statements into resolution rules.
func (s *Scenario) CapabilityRules() []conflicts.CapabilityResolutionRule {
	rules := make([]conflicts.CapabilityResolutionRule, 0, len(s.Rules))
	for _, decl := range s.Rules {
		rules = append(rules, conflicts.CapabilityResolutionRule{
			Group:  decl.Capability.Group,
			Name:   decl.Capability.Name,
			Action: decl.action,
		})
	}
	return rules
}

func (r *CapabilityRule) action(d *conflicts.RuleDetails) error {
	if r.Because != "" {
		d.Because(r.Because)
	}
	switch {
	case r.Select != "":
		return d.SelectNotation(r.Select)
	case r.Highest:
		d.SelectHighestVersion()
	}
	return nil
}

// NamedSpec is an exclude expression built from an exclude_any or
// exclude_all statement.
type NamedSpec struct {
	Name string
	Spec excludes.Spec
}

// ExcludeSpecs builds the exclude expressions through f, in declaration
// order. A spec exceeding the factory's depth limit is reported as an error.
func (s *Scenario) ExcludeSpecs(f excludes.Factory) ([]NamedSpec, error) {
	built := make(map[string]excludes.Spec, len(s.Excludes))
	specs := make([]NamedSpec, 0, len(s.Excludes))
	for _, decl := range s.Excludes {
		spec, err := excludes.Recover(func() excludes.Spec { return decl.build(f, built) })
		if err != nil {
			return nil, fmt.Errorf("exclude %s: %w", decl.Name, err)
		}
		built[decl.Name] = spec
		specs = append(specs, NamedSpec{Name: decl.Name, Spec: spec})
	}
	return specs, nil
}

func (d *ExcludeDecl) build(f excludes.Factory, built map[string]excludes.Spec) excludes.Spec {
	var operands []excludes.Spec
	if d.All {
		for _, g := range d.Groups {
			operands = append(operands, f.Group(g))
		}
		for _, m := range d.Modules {
			operands = append(operands, f.Module(m))
		}
		for _, id := range d.ModuleIDs {
			operands = append(operands, f.ModuleID(id))
		}
	} else {
		if len(d.Groups) > 0 {
			operands = append(operands, excludes.FromGroups(f, d.Groups))
		}
		if len(d.Modules) > 0 {
			operands = append(operands, excludes.FromModules(f, d.Modules))
		}
		if len(d.ModuleIDs) > 0 {
			operands = append(operands, excludes.FromModuleIDs(f, d.ModuleIDs))
		}
	}
	for _, ref := range d.Of {
		if spec, ok := built[ref]; ok {
			operands = append(operands, spec)
		}
	}
	if d.All {
		return f.AllOfSet(operands)
	}
	return excludes.FromUnion(f, operands)
}

// OverrideStrategy replaces the conflict strategy and version comparator
// named by strategy(). Empty values keep the declared ones.
func (s *Scenario) OverrideStrategy(strategy, comparator string) error {
	st := Strategy{Conflicts: StrategyLatest, Versions: VersionsDefault}
	if s.Strategy != nil {
		st = *s.Strategy
	}
	switch strategy {
	case "":
	case StrategyLatest, StrategyFail, StrategyPreferProject:
		st.Conflicts = strategy
	default:
		return fmt.Errorf("unknown conflict strategy %q", strategy)
	}
	switch comparator {
	case "":
	case VersionsDefault, VersionsSemantic:
		st.Versions = comparator
	default:
		return fmt.Errorf("unknown version comparator %q", comparator)
	}
	s.Strategy = &st
	return nil
}
