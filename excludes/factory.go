package excludes

import (
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/internal/pset"
)

// DefaultMaxDepth is the nesting depth above which the base factory refuses
// to build a composite spec.
const DefaultMaxDepth = 10000

// Factory builds exclude specs. Every spec is created through a Factory so
// that decorators (optimization, caching, normalization, logging) can
// intercept construction.
//
// AnyOf and AllOf accept nil operands; a nil operand is ignored by the
// optimizing layer.
type Factory interface {
	Nothing() Spec
	Everything() Spec
	Group(group string) Spec
	Module(module string) Spec
	ModuleID(id ident.ModuleID) Spec
	AnyOf(a, b Spec) Spec
	AllOf(a, b Spec) Spec
	AnyOfSet(specs []Spec) Spec
	AllOfSet(specs []Spec) Spec
	ModuleIDSet(ids []ident.ModuleID) Spec
	GroupSet(groups []string) Spec
	ModuleSet(modules []string) Spec
}

// BaseFactory constructs each variant directly from its arguments, without
// any simplification.
type BaseFactory struct {
	maxDepth int
}

var _ Factory = (*BaseFactory)(nil)

// NewBaseFactory creates a base factory. A maxDepth <= 0 selects
// DefaultMaxDepth.
func NewBaseFactory(maxDepth int) *BaseFactory {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &BaseFactory{maxDepth: maxDepth}
}

func (f *BaseFactory) Nothing() Spec    { return nothing }
func (f *BaseFactory) Everything() Spec { return everything }

func (f *BaseFactory) Group(group string) Spec   { return newGroupExclude(group) }
func (f *BaseFactory) Module(module string) Spec { return newModuleExclude(module) }

func (f *BaseFactory) ModuleID(id ident.ModuleID) Spec { return newModuleIDExclude(id) }

func (f *BaseFactory) AnyOf(a, b Spec) Spec {
	return f.AnyOfSet(nonNil(a, b))
}

func (f *BaseFactory) AllOf(a, b Spec) Spec {
	return f.AllOfSet(nonNil(a, b))
}

func (f *BaseFactory) AnyOfSet(specs []Spec) Spec {
	set := specSet(specs...)
	depth := f.checkDepth(KindAnyOf, set)
	return &AnyOf{header: newHeader(compositeKey(KindAnyOf, set)), components: set, depth: depth}
}

func (f *BaseFactory) AllOfSet(specs []Spec) Spec {
	set := specSet(specs...)
	depth := f.checkDepth(KindAllOf, set)
	return &AllOf{header: newHeader(compositeKey(KindAllOf, set)), components: set, depth: depth}
}

func (f *BaseFactory) ModuleIDSet(ids []ident.ModuleID) Spec {
	return newModuleIDSetExclude(moduleIDSet(ids...))
}

func (f *BaseFactory) GroupSet(groups []string) Spec {
	return newGroupSetExclude(nameSet(groups...))
}

func (f *BaseFactory) ModuleSet(modules []string) Spec {
	return newModuleSetExclude(nameSet(modules...))
}

// checkDepth panics with an *OverflowError when a composite would exceed the
// configured depth.
func (f *BaseFactory) checkDepth(kind Kind, set pset.Set[Spec]) int {
	depth := maxDepth(set) + 1
	if depth > f.maxDepth {
		panic(&OverflowError{Op: kind.String(), Depth: depth, Limit: f.maxDepth})
	}
	return depth
}

func nonNil(specs ...Spec) []Spec {
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// FromUnion returns the union of specs in its minimal form: Nothing for an
// empty slice, the spec itself for one element, AnyOfSet otherwise.
func FromUnion(f Factory, specs []Spec) Spec {
	switch len(specs) {
	case 0:
		return f.Nothing()
	case 1:
		return specs[0]
	default:
		return f.AnyOfSet(specs)
	}
}

// FromModuleIDs returns Nothing, a single ModuleID or a ModuleIDSet.
func FromModuleIDs(f Factory, ids []ident.ModuleID) Spec {
	switch len(ids) {
	case 0:
		return f.Nothing()
	case 1:
		return f.ModuleID(ids[0])
	default:
		return f.ModuleIDSet(ids)
	}
}

// FromModules returns Nothing, a single Module or a ModuleSet.
func FromModules(f Factory, modules []string) Spec {
	switch len(modules) {
	case 0:
		return f.Nothing()
	case 1:
		return f.Module(modules[0])
	default:
		return f.ModuleSet(modules)
	}
}

// FromGroups returns Nothing, a single Group or a GroupSet.
func FromGroups(f Factory, groups []string) Spec {
	switch len(groups) {
	case 0:
		return f.Nothing()
	case 1:
		return f.Group(groups[0])
	default:
		return f.GroupSet(groups)
	}
}
