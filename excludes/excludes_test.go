package excludes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

func mid(group, name string) ident.ModuleID {
	return ident.MustModuleID(group, name)
}

// samples returns one or more specs of every variant, built through f.
func samples(f Factory) []Spec {
	base := NewBaseFactory(0)
	return []Spec{
		f.Nothing(),
		f.Everything(),
		f.Group("a"),
		f.Group("b"),
		f.Module("x"),
		f.Module("y"),
		f.ModuleID(mid("a", "x")),
		f.ModuleID(mid("b", "z")),
		f.GroupSet([]string{"a", "c"}),
		f.ModuleSet([]string{"x", "z"}),
		f.ModuleIDSet([]ident.ModuleID{mid("a", "y"), mid("c", "x")}),
		f.AnyOf(f.Group("b"), f.Module("y")),
		f.AnyOf(f.ModuleID(mid("c", "z")), f.Module("x")),
		base.AllOf(base.Group("a"), base.Module("q")),
	}
}

// universe is the set of modules used to compare specs by evaluation.
func universe() []ident.ModuleID {
	var ids []ident.ModuleID
	for _, g := range []string{"a", "b", "c", "d"} {
		for _, n := range []string{"x", "y", "z", "q"} {
			ids = append(ids, mid(g, n))
		}
	}
	return ids
}

func TestIdentityAndAbsorbingElements(t *testing.T) {
	f := NewChain()
	for _, s := range samples(f) {
		t.Run(s.Key(), func(t *testing.T) {
			assert.True(t, f.AnyOf(f.Nothing(), s).Equal(s))
			assert.True(t, f.AnyOf(f.Everything(), s).Equal(f.Everything()))
			assert.True(t, f.AllOf(f.Nothing(), s).Equal(f.Nothing()))
			assert.True(t, f.AllOf(f.Everything(), s).Equal(s))
		})
	}
}

func TestIdempotentSelfOperations(t *testing.T) {
	f := NewChain()
	for _, s := range samples(f) {
		t.Run(s.Key(), func(t *testing.T) {
			assert.True(t, f.AnyOf(s, s).Equal(s))
			assert.True(t, f.AllOf(s, s).Equal(s))
		})
	}
}

func TestNormalizingIsIdempotentOnNormalizedSpecs(t *testing.T) {
	f := NewChain()
	n := NewNormalizing(NewBaseFactory(0))
	for _, s := range samples(f) {
		if s.Kind() == KindAllOf {
			continue
		}
		t.Run(s.Key(), func(t *testing.T) {
			assert.Equal(t, s.Key(), n.AnyOfSet([]Spec{s, s}).Key())
		})
	}
}

func TestCommutativityReturnsSameCachedInstance(t *testing.T) {
	f := NewChain()
	specs := samples(f)
	for _, a := range specs {
		for _, b := range specs {
			ab, ba := f.AnyOf(a, b), f.AnyOf(b, a)
			assert.Same(t, ab, ba, "anyOf(%s, %s)", a, b)
			assert.True(t, ExcludesSameModulesAs(ab, ba))

			ab, ba = f.AllOf(a, b), f.AllOf(b, a)
			assert.Same(t, ab, ba, "allOf(%s, %s)", a, b)
			assert.True(t, ExcludesSameModulesAs(ab, ba))
		}
	}
}

func TestOperationsPreserveEvaluation(t *testing.T) {
	f := NewChain()
	specs := samples(f)
	for _, a := range specs {
		for _, b := range specs {
			union, intersection := f.AnyOf(a, b), f.AllOf(a, b)
			for _, id := range universe() {
				assert.Equal(t, a.Excludes(id) || b.Excludes(id), union.Excludes(id),
					"anyOf(%s, %s) = %s on %s", a, b, union, id)
				assert.Equal(t, a.Excludes(id) && b.Excludes(id), intersection.Excludes(id),
					"allOf(%s, %s) = %s on %s", a, b, intersection, id)
			}
		}
	}
}

func TestAbsorptionLaw(t *testing.T) {
	f := NewChain()
	base := NewBaseFactory(0)
	a, b := f.Group("org"), f.Module("foo")

	assert.True(t, f.AnyOf(f.AllOf(a, b), a).Equal(a))
	assert.True(t, f.AllOf(f.AnyOf(a, b), a).Equal(a))

	// un-simplified composites are absorbed too
	assert.True(t, f.AnyOf(base.AllOf(a, b), a).Equal(a))
	assert.True(t, f.AllOf(base.AnyOf(a, b), a).Equal(a))
}

func TestUnionMergesAtomsIntoSets(t *testing.T) {
	f := NewChain()

	got := f.AnyOfSet([]Spec{f.Group("x"), f.Group("y")})
	require.Equal(t, KindGroupSet, got.Kind())
	assert.Equal(t, []string{"x", "y"}, got.(*GroupSetExclude).Groups())

	got = f.AnyOfSet([]Spec{f.Module("b"), f.Module("a"), f.ModuleSet([]string{"c", "d"})})
	require.Equal(t, KindModuleSet, got.Kind())
	assert.Equal(t, []string{"a", "b", "c", "d"}, got.(*ModuleSetExclude).Modules())

	got = f.AnyOfSet([]Spec{f.Group("g"), f.ModuleID(mid("g", "x")), f.ModuleID(mid("h", "y")), f.Module("z")})
	require.Equal(t, KindAnyOf, got.Kind())
	assert.Equal(t, "anyOf{group(g);module(z);moduleId(h:y)}", got.Key())
}

func TestUnionFlattensNestedAnyOf(t *testing.T) {
	f := NewChain()
	inner := f.AnyOf(f.Group("a"), f.Module("x"))
	got := f.AnyOf(inner, f.AnyOf(f.Group("b"), f.Module("y")))

	require.Equal(t, KindAnyOf, got.Kind())
	for _, c := range got.(*AnyOf).Components() {
		assert.NotEqual(t, KindAnyOf, c.Kind())
	}
	assert.Equal(t, "anyOf{groups{a,b};modules{x,y}}", got.Key())
}

func TestIntersectionTable(t *testing.T) {
	f := NewChain()
	anyAX := f.AnyOf(f.Group("a"), f.Module("x"))

	tests := []struct {
		name string
		a, b Spec
		want Spec
	}{
		{"group with matching module id", f.Group("org"), f.ModuleID(mid("org", "foo")), f.ModuleID(mid("org", "foo"))},
		{"group with other module id", f.Group("org"), f.ModuleID(mid("other", "foo")), f.Nothing()},
		{"module with group", f.Module("foo"), f.Group("org"), f.ModuleID(mid("org", "foo"))},
		{"distinct groups", f.Group("a"), f.Group("b"), f.Nothing()},
		{"group sets", f.GroupSet([]string{"a", "b"}), f.GroupSet([]string{"b", "c"}), f.Group("b")},
		{"group in group set", f.Group("a"), f.GroupSet([]string{"a", "b"}), f.Group("a")},
		{"group not in group set", f.Group("c"), f.GroupSet([]string{"a", "b"}), f.Nothing()},
		{"module with module id set", f.Module("foo"), f.ModuleIDSet([]ident.ModuleID{mid("a", "foo"), mid("b", "bar")}), f.ModuleID(mid("a", "foo"))},
		{"module set with group set", f.ModuleSet([]string{"foo", "bar"}), f.GroupSet([]string{"g"}), f.ModuleIDSet([]ident.ModuleID{mid("g", "bar"), mid("g", "foo")})},
		{"module sets", f.ModuleSet([]string{"foo", "bar"}), f.ModuleSet([]string{"bar", "baz"}), f.Module("bar")},
		{"module id sets", f.ModuleIDSet([]ident.ModuleID{mid("a", "x"), mid("b", "y")}), f.ModuleIDSet([]ident.ModuleID{mid("b", "y"), mid("c", "z")}), f.ModuleID(mid("b", "y"))},
		{"group with module set", f.Group("a"), f.ModuleSet([]string{"x", "y"}), f.ModuleIDSet([]ident.ModuleID{mid("a", "x"), mid("a", "y")})},
		{"anyOf distribution", anyAX, f.AnyOf(f.Group("b"), f.Module("y")), f.ModuleIDSet([]ident.ModuleID{mid("a", "y"), mid("b", "x")})},
		{"anyOf common term", anyAX, f.AnyOf(f.Group("a"), f.Module("y")), f.Group("a")},
		{"anyOf with module id", anyAX, f.ModuleID(mid("a", "z")), f.ModuleID(mid("a", "z"))},
		{"equal specs", anyAX, anyAX, anyAX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.AllOf(tt.a, tt.b)
			assert.Equal(t, tt.want.Key(), got.Key())
			assert.Equal(t, tt.want.Key(), f.AllOf(tt.b, tt.a).Key())
		})
	}
}

func TestFixedPointTerminates(t *testing.T) {
	f := NewChain()
	const n = 200

	var ids, mixed []Spec
	var groups []string
	for i := range n {
		group := fmt.Sprintf("g%03d", i)
		ids = append(ids, f.ModuleID(mid(group, "m")))
		mixed = append(mixed, f.Group(group), f.ModuleID(mid(group, "m")))
		groups = append(groups, group)
	}

	got := f.AnyOfSet(ids)
	require.Equal(t, KindModuleIDSet, got.Kind())
	assert.Len(t, got.(*ModuleIDSetExclude).ModuleIDs(), n)

	got = f.AnyOfSet(mixed)
	assert.Equal(t, f.GroupSet(groups).Key(), got.Key())
}

func TestUnionPrunesCoveredModuleIDs(t *testing.T) {
	f := NewChain()
	set := f.ModuleIDSet([]ident.ModuleID{mid("a", "x"), mid("a", "y"), mid("b", "z")})

	got := f.AnyOf(set, f.Group("a"))
	assert.Equal(t, "anyOf{group(a);moduleId(b:z)}", got.Key())

	got = f.AnyOf(set, f.GroupSet([]string{"a", "b"}))
	assert.Equal(t, "groups{a,b}", got.Key())
}

func TestKeysAreCanonical(t *testing.T) {
	f := NewChain()
	assert.Equal(t, "groups{a,b}", f.GroupSet([]string{"b", "a", "b"}).Key())
	assert.True(t, f.ModuleIDSet([]ident.ModuleID{mid("a", "x"), mid("b", "y")}).
		Equal(f.ModuleIDSet([]ident.ModuleID{mid("b", "y"), mid("a", "x")})))
	assert.Equal(t, f.Group("a").Hash(), NewBaseFactory(0).Group("a").Hash())
	assert.False(t, f.Group("a").Equal(f.Module("a")))
}

func TestKeysEscapeDelimiters(t *testing.T) {
	f := NewChain()
	u1 := f.GroupSet([]string{"a,b", "c"})
	u2 := f.GroupSet([]string{"a", "b,c"})

	assert.Equal(t, `groups{a\,b,c}`, u1.Key())
	assert.Equal(t, `groups{a,b\,c}`, u2.Key())
	assert.False(t, u1.Equal(u2))
	assert.NotSame(t, f.AnyOf(u1, f.Module("z")), f.AnyOf(u2, f.Module("z")))
	assert.True(t, u2.Excludes(mid("a", "x")))
	assert.False(t, u1.Excludes(mid("a", "x")))

	assert.Equal(t, `group(a\)b)`, f.Group("a)b").Key())
	assert.Equal(t, `moduleId(a\{:b\})`, f.ModuleID(mid("a{", "b}")).Key())
	assert.False(t, f.Module("x;y").Equal(f.ModuleSet([]string{"x", "y"})))
}

func TestCollectionsCollapseOnDistinctElements(t *testing.T) {
	f := NewChain()

	assert.True(t, f.GroupSet([]string{"g", "g"}).Equal(f.Group("g")))
	assert.True(t, f.ModuleSet([]string{"m", "m", "m"}).Equal(f.Module("m")))
	assert.True(t, f.ModuleIDSet([]ident.ModuleID{mid("g", "m"), mid("g", "m")}).Equal(f.ModuleID(mid("g", "m"))))
	assert.Equal(t, KindGroup, f.AnyOfSet([]Spec{f.Group("a"), f.Group("a"), f.Group("a")}).Kind())
}

func TestExcludesSameModulesAs(t *testing.T) {
	base := NewBaseFactory(0)
	a := base.AnyOf(base.Group("a"), base.AllOf(base.Module("x"), base.Group("b")))
	b := base.AnyOf(base.AllOf(base.Group("b"), base.Module("x")), base.Group("a"))

	assert.True(t, ExcludesSameModulesAs(a, b))
	assert.False(t, ExcludesSameModulesAs(a, base.AnyOf(base.Group("a"), base.Group("b"))))
	assert.False(t, ExcludesSameModulesAs(base.Group("a"), base.Module("a")))
	assert.True(t, ExcludesSameModulesAs(nil, nil))
}

func TestConvenienceConstructors(t *testing.T) {
	f := NewChain()

	assert.Equal(t, KindNothing, FromGroups(f, nil).Kind())
	assert.Equal(t, KindGroup, FromGroups(f, []string{"a"}).Kind())
	assert.Equal(t, KindGroupSet, FromGroups(f, []string{"a", "b"}).Kind())

	assert.Equal(t, KindNothing, FromModules(f, nil).Kind())
	assert.Equal(t, KindModule, FromModules(f, []string{"x"}).Kind())
	assert.Equal(t, KindModuleSet, FromModules(f, []string{"x", "y"}).Kind())

	assert.Equal(t, KindNothing, FromModuleIDs(f, nil).Kind())
	assert.Equal(t, KindModuleID, FromModuleIDs(f, []ident.ModuleID{mid("a", "x")}).Kind())
	assert.Equal(t, KindModuleIDSet, FromModuleIDs(f, []ident.ModuleID{mid("a", "x"), mid("a", "y")}).Kind())

	assert.Equal(t, KindNothing, FromUnion(f, nil).Kind())
	assert.Equal(t, KindGroup, FromUnion(f, []Spec{f.Group("a")}).Kind())
	assert.Equal(t, KindGroupSet, FromUnion(f, []Spec{f.Group("a"), f.Group("b")}).Kind())
}

func TestOptimizingDegeneratesCollections(t *testing.T) {
	f := NewOptimizing(NewBaseFactory(0))

	assert.Equal(t, KindNothing, f.AnyOfSet(nil).Kind())
	assert.Equal(t, KindNothing, f.AllOfSet(nil).Kind())
	assert.Equal(t, KindGroup, f.AnyOfSet([]Spec{f.Group("a")}).Kind())
	assert.Equal(t, KindModuleID, f.ModuleIDSet([]ident.ModuleID{mid("a", "x")}).Kind())
	assert.Equal(t, KindNothing, f.GroupSet(nil).Kind())
	assert.Equal(t, KindModule, f.ModuleSet([]string{"x"}).Kind())

	g := f.Group("a")
	assert.Same(t, g, f.AnyOf(nil, g))
	assert.Same(t, g, f.AllOf(g, nil))
}

func TestEvaluation(t *testing.T) {
	f := NewChain()
	spec := f.AnyOf(f.Group("org.slf4j"), f.ModuleID(mid("log4j", "log4j")))

	assert.True(t, spec.Excludes(mid("org.slf4j", "slf4j-api")))
	assert.True(t, spec.Excludes(mid("log4j", "log4j")))
	assert.False(t, spec.Excludes(mid("log4j", "log4j-core")))
	assert.False(t, f.Nothing().Excludes(mid("a", "b")))
	assert.True(t, f.Everything().Excludes(mid("a", "b")))
}
