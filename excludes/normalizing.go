package excludes

import (
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/internal/pset"
)

// Normalizing simplifies unions and intersections algebraically so that
// specs excluding the same modules converge on the same representation.
//
// Unions flatten nested AnyOf, drop AllOf members absorbed by another member,
// merge atoms of the same kind into their set form and then apply the
// pairwise union rules until a pass makes no change. Intersections do the
// same with the intersection rule table.
type Normalizing struct {
	delegate      Factory
	outer         Factory
	unions        ruleTable
	intersections *intersections
}

var _ Factory = (*Normalizing)(nil)

// NewNormalizing wraps delegate, which receives the simplified specs.
func NewNormalizing(delegate Factory) *Normalizing {
	n := &Normalizing{delegate: delegate}
	n.unions = newUnions(n.factory)
	n.intersections = newIntersections(n.factory)
	return n
}

// recurseThrough routes the construction of sub-expressions through f,
// normally the head of the factory chain.
func (n *Normalizing) recurseThrough(f Factory) {
	n.outer = f
}

func (n *Normalizing) factory() Factory {
	if n.outer != nil {
		return n.outer
	}
	return n
}

func (n *Normalizing) Nothing() Spec                   { return n.delegate.Nothing() }
func (n *Normalizing) Everything() Spec                { return n.delegate.Everything() }
func (n *Normalizing) Group(group string) Spec         { return n.delegate.Group(group) }
func (n *Normalizing) Module(module string) Spec       { return n.delegate.Module(module) }
func (n *Normalizing) ModuleID(id ident.ModuleID) Spec { return n.delegate.ModuleID(id) }

func (n *Normalizing) ModuleIDSet(ids []ident.ModuleID) Spec { return n.delegate.ModuleIDSet(ids) }
func (n *Normalizing) GroupSet(groups []string) Spec         { return n.delegate.GroupSet(groups) }
func (n *Normalizing) ModuleSet(modules []string) Spec       { return n.delegate.ModuleSet(modules) }

func (n *Normalizing) AnyOf(a, b Spec) Spec {
	// (A ∩ X) ∪ A = A
	if all, ok := a.(*AllOf); ok && b != nil && all.Contains(b) {
		return b
	}
	if all, ok := b.(*AllOf); ok && a != nil && all.Contains(a) {
		return a
	}
	return n.union(nonNil(a, b))
}

func (n *Normalizing) AllOf(a, b Spec) Spec {
	// (A ∪ X) ∩ A = A
	if anyOf, ok := a.(*AnyOf); ok && b != nil && anyOf.Contains(b) {
		return b
	}
	if anyOf, ok := b.(*AnyOf); ok && a != nil && anyOf.Contains(a) {
		return a
	}
	return n.intersect(nonNil(a, b))
}

func (n *Normalizing) AnyOfSet(specs []Spec) Spec { return n.union(nonNil(specs...)) }
func (n *Normalizing) AllOfSet(specs []Spec) Spec { return n.intersect(nonNil(specs...)) }

func (n *Normalizing) union(specs []Spec) Spec {
	members := specSet()
	for _, s := range specs {
		switch s.Kind() {
		case KindEverything:
			return n.delegate.Everything()
		case KindNothing:
		case KindAnyOf:
			for _, c := range s.(*AnyOf).Components() {
				if c.Kind() == KindEverything {
					return n.delegate.Everything()
				}
				if c.Kind() != KindNothing {
					members = members.Plus(c)
				}
			}
		default:
			members = members.Plus(s)
		}
	}
	members = absorb[*AllOf](members)

	ids := moduleIDSet()
	groups := nameSet()
	modules := nameSet()
	work := specSet()
	members.Each(func(s Spec) bool {
		switch v := s.(type) {
		case *ModuleIDExclude:
			ids = ids.Plus(v.id)
		case *ModuleIDSetExclude:
			ids = ids.Union(v.ids)
		case *GroupExclude:
			groups = groups.Plus(v.group)
		case *GroupSetExclude:
			groups = groups.Union(v.groups)
		case *ModuleExclude:
			modules = modules.Plus(v.module)
		case *ModuleSetExclude:
			modules = modules.Union(v.modules)
		default:
			work = work.Plus(s)
		}
		return true
	})
	for _, merged := range []Spec{
		FromModuleIDs(n.delegate, ids.Items()),
		FromGroups(n.delegate, groups.Items()),
		FromModules(n.delegate, modules.Items()),
	} {
		if merged.Kind() != KindNothing {
			work = work.Plus(merged)
		}
	}

	work, absorbed := simplify(work, n.unions.try, KindAnyOf)
	if absorbed {
		return n.delegate.Everything()
	}
	return FromUnion(n.delegate, work.Items())
}

func (n *Normalizing) intersect(specs []Spec) Spec {
	members := specSet()
	for _, s := range specs {
		switch s.Kind() {
		case KindNothing:
			return n.delegate.Nothing()
		case KindEverything:
		case KindAllOf:
			for _, c := range s.(*AllOf).Components() {
				if c.Kind() == KindNothing {
					return n.delegate.Nothing()
				}
				if c.Kind() != KindEverything {
					members = members.Plus(c)
				}
			}
		default:
			members = members.Plus(s)
		}
	}
	members = absorb[*AnyOf](members)

	work, absorbed := simplify(members, n.intersections.try, KindAllOf)
	if absorbed {
		return n.delegate.Nothing()
	}
	switch work.Len() {
	case 0:
		return n.delegate.Everything()
	case 1:
		first, _ := work.First()
		return first
	}
	return n.delegate.AllOfSet(work.Items())
}

// simplify applies try to pairs of work until a full pass makes no change.
// Results of kind flatten are spliced into the set. It reports true as soon
// as a pair collapses to the absorbing element of the operation (Everything
// for unions, Nothing for intersections).
func simplify(work pset.Set[Spec], try func(a, b Spec) Spec, flatten Kind) (pset.Set[Spec], bool) {
	absorbing, identity := KindEverything, KindNothing
	if flatten == KindAllOf {
		absorbing, identity = KindNothing, KindEverything
	}
	for {
		items := work.Items()
		changed := false
	scan:
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				r := try(items[i], items[j])
				if r == nil {
					continue
				}
				work = work.Minus(items[i]).Minus(items[j])
				switch {
				case r.Kind() == absorbing:
					return work, true
				case r.Kind() == identity:
				case r.Kind() == flatten:
					c, _ := components(r)
					work = work.Union(c)
				default:
					work = work.Plus(r)
				}
				changed = true
				break scan
			}
		}
		if !changed {
			return work, false
		}
	}
}

// absorb drops composite members of type C that directly contain another
// member: (A ∩ X) ∪ A = A and (A ∪ X) ∩ A = A.
func absorb[C interface {
	Spec
	Contains(Spec) bool
}](members pset.Set[Spec]) pset.Set[Spec] {
	return members.Filter(func(m Spec) bool {
		c, ok := m.(C)
		if !ok {
			return true
		}
		return !members.Any(func(o Spec) bool { return !o.Equal(m) && c.Contains(o) })
	})
}
