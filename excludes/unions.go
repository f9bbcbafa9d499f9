package excludes

import "github.com/albertocavalcante/go-resolveengine/ident"

// newUnions returns the pairwise union rules. Each successful rule either
// merges two specs into one or strictly shrinks a module id set, which
// bounds the normalization loop.
func newUnions(factory func() Factory) ruleTable {
	return ruleTable{
		{
			name: "moduleId+moduleIds", left: is(KindModuleID), right: is(KindModuleIDSet),
			apply: func(l, r Spec) Spec {
				id, set := l.(*ModuleIDExclude).id, r.(*ModuleIDSetExclude).ids
				if set.Contains(id) {
					return r
				}
				return factory().ModuleIDSet(set.Plus(id).Items())
			},
		},
		{
			name: "group+groups", left: is(KindGroup), right: is(KindGroupSet),
			apply: func(l, r Spec) Spec {
				group, set := l.(*GroupExclude).group, r.(*GroupSetExclude).groups
				if set.Contains(group) {
					return r
				}
				return factory().GroupSet(set.Plus(group).Items())
			},
		},
		{
			name: "module+modules", left: is(KindModule), right: is(KindModuleSet),
			apply: func(l, r Spec) Spec {
				module, set := l.(*ModuleExclude).module, r.(*ModuleSetExclude).modules
				if set.Contains(module) {
					return r
				}
				return factory().ModuleSet(set.Plus(module).Items())
			},
		},
		{
			name: "moduleIds+moduleIds", left: is(KindModuleIDSet), right: is(KindModuleIDSet),
			apply: func(l, r Spec) Spec {
				return factory().ModuleIDSet(l.(*ModuleIDSetExclude).ids.Union(r.(*ModuleIDSetExclude).ids).Items())
			},
		},
		{
			name: "groups+groups", left: is(KindGroupSet), right: is(KindGroupSet),
			apply: func(l, r Spec) Spec {
				return factory().GroupSet(l.(*GroupSetExclude).groups.Union(r.(*GroupSetExclude).groups).Items())
			},
		},
		{
			name: "modules+modules", left: is(KindModuleSet), right: is(KindModuleSet),
			apply: func(l, r Spec) Spec {
				return factory().ModuleSet(l.(*ModuleSetExclude).modules.Union(r.(*ModuleSetExclude).modules).Items())
			},
		},
		{
			name: "moduleId+group", left: is(KindModuleID), right: is(KindGroup),
			apply: func(l, r Spec) Spec {
				if l.(*ModuleIDExclude).id.Group == r.(*GroupExclude).group {
					return r
				}
				return nil
			},
		},
		{
			name: "moduleId+module", left: is(KindModuleID), right: is(KindModule),
			apply: func(l, r Spec) Spec {
				if l.(*ModuleIDExclude).id.Name == r.(*ModuleExclude).module {
					return r
				}
				return nil
			},
		},
		{
			name: "moduleId+groups", left: is(KindModuleID), right: is(KindGroupSet),
			apply: func(l, r Spec) Spec {
				if r.(*GroupSetExclude).groups.Contains(l.(*ModuleIDExclude).id.Group) {
					return r
				}
				return nil
			},
		},
		{
			name: "moduleId+modules", left: is(KindModuleID), right: is(KindModuleSet),
			apply: func(l, r Spec) Spec {
				if r.(*ModuleSetExclude).modules.Contains(l.(*ModuleIDExclude).id.Name) {
					return r
				}
				return nil
			},
		},
		{
			name: "moduleIds+group", left: is(KindModuleIDSet), right: is(KindGroup),
			apply: func(l, r Spec) Spec {
				return pruneModuleIDs(factory(), l, r)
			},
		},
		{
			name: "moduleIds+module", left: is(KindModuleIDSet), right: is(KindModule),
			apply: func(l, r Spec) Spec {
				return pruneModuleIDs(factory(), l, r)
			},
		},
		{
			name: "moduleIds+groups", left: is(KindModuleIDSet), right: is(KindGroupSet),
			apply: func(l, r Spec) Spec {
				return pruneModuleIDs(factory(), l, r)
			},
		},
		{
			name: "moduleIds+modules", left: is(KindModuleIDSet), right: is(KindModuleSet),
			apply: func(l, r Spec) Spec {
				return pruneModuleIDs(factory(), l, r)
			},
		},
	}
}

// pruneModuleIDs drops the ids already excluded by cover. It returns nil when
// cover excludes none of them.
func pruneModuleIDs(f Factory, set, cover Spec) Spec {
	ids := set.(*ModuleIDSetExclude).ids
	remaining := ids.Filter(func(id ident.ModuleID) bool { return !cover.Excludes(id) })
	switch remaining.Len() {
	case ids.Len():
		return nil
	case 0:
		return cover
	}
	return f.AnyOf(cover, FromModuleIDs(f, remaining.Items()))
}
