package excludes

import "github.com/albertocavalcante/go-resolveengine/ident"

// intersections is the ordered table of pairwise intersection rules. The
// AnyOf rules come first, the more specific AnyOf-with-AnyOf before
// AnyOf-with-anything-else.
type intersections struct {
	factory func() Factory
	rules   ruleTable
}

func newIntersections(factory func() Factory) *intersections {
	x := &intersections{factory: factory}
	x.rules = ruleTable{
		{name: "anyOf&anyOf", left: is(KindAnyOf), right: is(KindAnyOf), apply: x.anyWithAny},
		{name: "anyOf&spec", left: is(KindAnyOf), right: isNot(KindAnyOf), apply: x.anyWithSpec},

		{name: "group&group", left: is(KindGroup), right: is(KindGroup), apply: x.nothing},
		{name: "group&moduleId", left: is(KindGroup), right: is(KindModuleID), apply: x.groupWithModuleID},
		{name: "group&groups", left: is(KindGroup), right: is(KindGroupSet), apply: x.groupWithGroupSet},
		{name: "group&moduleIds", left: is(KindGroup), right: is(KindModuleIDSet), apply: x.groupWithModuleIDSet},
		{name: "group&module", left: is(KindGroup), right: is(KindModule), apply: x.groupWithModule},
		{name: "group&modules", left: is(KindGroup), right: is(KindModuleSet), apply: x.groupWithModuleSet},

		{name: "groups&groups", left: is(KindGroupSet), right: is(KindGroupSet), apply: x.groupSetWithGroupSet},
		{name: "groups&moduleId", left: is(KindGroupSet), right: is(KindModuleID), apply: x.containsModuleID},
		{name: "groups&moduleIds", left: is(KindGroupSet), right: is(KindModuleIDSet), apply: x.filterModuleIDs},

		{name: "module&module", left: is(KindModule), right: is(KindModule), apply: x.nothing},
		{name: "module&moduleId", left: is(KindModule), right: is(KindModuleID), apply: x.containsModuleID},
		{name: "module&modules", left: is(KindModule), right: is(KindModuleSet), apply: x.moduleWithModuleSet},
		{name: "module&moduleIds", left: is(KindModule), right: is(KindModuleIDSet), apply: x.filterModuleIDs},
		{name: "module&groups", left: is(KindModule), right: is(KindGroupSet), apply: x.moduleWithGroupSet},

		{name: "moduleId&moduleId", left: is(KindModuleID), right: is(KindModuleID), apply: x.nothing},
		{name: "moduleId&moduleIds", left: is(KindModuleIDSet), right: is(KindModuleID), apply: x.containsModuleID},
		{name: "moduleId&modules", left: is(KindModuleSet), right: is(KindModuleID), apply: x.containsModuleID},

		{name: "moduleIds&moduleIds", left: is(KindModuleIDSet), right: is(KindModuleIDSet), apply: x.moduleIDSetWithModuleIDSet},
		{name: "moduleIds&modules", left: is(KindModuleSet), right: is(KindModuleIDSet), apply: x.filterModuleIDs},

		{name: "modules&modules", left: is(KindModuleSet), right: is(KindModuleSet), apply: x.moduleSetWithModuleSet},
		{name: "modules&groups", left: is(KindModuleSet), right: is(KindGroupSet), apply: x.moduleSetWithGroupSet},
	}
	return x
}

// try returns the simplified intersection of a and b, or nil when no rule
// simplifies the pair. Equal specs intersect to themselves.
func (x *intersections) try(a, b Spec) Spec {
	if a.Equal(b) {
		return a
	}
	return x.rules.try(a, b)
}

// nothing handles disjoint atoms of the same kind; equality was checked first.
func (x *intersections) nothing(Spec, Spec) Spec {
	return x.factory().Nothing()
}

func (x *intersections) anyWithAny(l, r Spec) Spec {
	f := x.factory()
	left, right := l.(*AnyOf).components, r.(*AnyOf).components
	common := left.Intersect(right)
	if !common.IsEmpty() {
		alpha := FromUnion(f, common.Items())
		if left.Equal(common) || right.Equal(common) {
			return alpha
		}
		unionLeft := FromUnion(f, left.Except(common).Items())
		unionRight := FromUnion(f, right.Except(common).Items())
		return f.AnyOf(alpha, f.AllOf(unionLeft, unionRight))
	}
	// (A ∪ B) ∩ (C ∪ D) = (A ∩ C) ∪ (A ∩ D) ∪ (B ∩ C) ∪ (B ∩ D)
	merged := specSet()
	for _, ls := range left.Items() {
		for _, rs := range right.Items() {
			m := x.try(ls, rs)
			if m == nil {
				m = f.AllOf(ls, rs)
			}
			if m.Kind() != KindNothing {
				merged = merged.Plus(m)
			}
		}
	}
	return FromUnion(f, merged.Items())
}

// anyWithSpec distributes A ∩ (B ∪ C) only if at least one of the partial
// intersections simplifies.
func (x *intersections) anyWithSpec(l, r Spec) Spec {
	members := l.(*AnyOf).Components()
	partial := make([]Spec, len(members))
	simplified := false
	for i, m := range members {
		if p := x.try(m, r); p != nil {
			partial[i] = p
			simplified = true
		}
	}
	if !simplified {
		return nil
	}
	f := x.factory()
	result := specSet()
	for i, p := range partial {
		switch {
		case p == nil:
			result = result.Plus(f.AllOf(members[i], r))
		case p.Kind() != KindNothing:
			result = result.Plus(p)
		}
	}
	return FromUnion(f, result.Items())
}

func (x *intersections) groupWithModuleID(l, r Spec) Spec {
	if r.(*ModuleIDExclude).id.Group == l.(*GroupExclude).group {
		return r
	}
	return x.factory().Nothing()
}

func (x *intersections) groupWithGroupSet(l, r Spec) Spec {
	if r.(*GroupSetExclude).groups.Contains(l.(*GroupExclude).group) {
		return l
	}
	return x.factory().Nothing()
}

func (x *intersections) groupWithModuleIDSet(l, r Spec) Spec {
	return x.filterModuleIDs(l, r)
}

func (x *intersections) groupWithModule(l, r Spec) Spec {
	id := ident.ModuleID{Group: l.(*GroupExclude).group, Name: r.(*ModuleExclude).module}
	return x.factory().ModuleID(id)
}

func (x *intersections) groupWithModuleSet(l, r Spec) Spec {
	group := l.(*GroupExclude).group
	var ids []ident.ModuleID
	for _, module := range r.(*ModuleSetExclude).Modules() {
		ids = append(ids, ident.ModuleID{Group: group, Name: module})
	}
	return x.factory().ModuleIDSet(ids)
}

func (x *intersections) groupSetWithGroupSet(l, r Spec) Spec {
	common := l.(*GroupSetExclude).groups.Intersect(r.(*GroupSetExclude).groups)
	return FromGroups(x.factory(), common.Items())
}

// containsModuleID keeps the module id when the other operand excludes it.
func (x *intersections) containsModuleID(l, r Spec) Spec {
	if l.Excludes(r.(*ModuleIDExclude).id) {
		return r
	}
	return x.factory().Nothing()
}

// filterModuleIDs keeps the ids of the right operand excluded by the left one.
func (x *intersections) filterModuleIDs(l, r Spec) Spec {
	ids := r.(*ModuleIDSetExclude).ids.Filter(l.Excludes)
	return FromModuleIDs(x.factory(), ids.Items())
}

func (x *intersections) moduleWithModuleSet(l, r Spec) Spec {
	if r.(*ModuleSetExclude).modules.Contains(l.(*ModuleExclude).module) {
		return l
	}
	return x.factory().Nothing()
}

func (x *intersections) moduleWithGroupSet(l, r Spec) Spec {
	module := l.(*ModuleExclude).module
	var ids []ident.ModuleID
	for _, group := range r.(*GroupSetExclude).Groups() {
		ids = append(ids, ident.ModuleID{Group: group, Name: module})
	}
	return x.factory().ModuleIDSet(ids)
}

func (x *intersections) moduleIDSetWithModuleIDSet(l, r Spec) Spec {
	common := l.(*ModuleIDSetExclude).ids.Intersect(r.(*ModuleIDSetExclude).ids)
	return FromModuleIDs(x.factory(), common.Items())
}

func (x *intersections) moduleSetWithModuleSet(l, r Spec) Spec {
	common := l.(*ModuleSetExclude).modules.Intersect(r.(*ModuleSetExclude).modules)
	return FromModules(x.factory(), common.Items())
}

func (x *intersections) moduleSetWithGroupSet(l, r Spec) Spec {
	ids := moduleIDSet()
	for _, group := range r.(*GroupSetExclude).Groups() {
		for _, module := range l.(*ModuleSetExclude).Modules() {
			ids = ids.Plus(ident.ModuleID{Group: group, Name: module})
		}
	}
	return x.factory().ModuleIDSet(ids.Items())
}
