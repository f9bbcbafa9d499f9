package excludes

import "github.com/albertocavalcante/go-resolveengine/ident"

// Optimizing short-circuits trivial unions and intersections before they
// reach the delegate: nil operands, equal operands and the Nothing and
// Everything identities. Collections are deduplicated first: empty and single
// element collections degenerate to their minimal form, and two element
// collections become binary calls.
type Optimizing struct {
	delegate Factory
}

var _ Factory = (*Optimizing)(nil)

// NewOptimizing wraps delegate.
func NewOptimizing(delegate Factory) *Optimizing {
	return &Optimizing{delegate: delegate}
}

func (f *Optimizing) Nothing() Spec                   { return f.delegate.Nothing() }
func (f *Optimizing) Everything() Spec                { return f.delegate.Everything() }
func (f *Optimizing) Group(group string) Spec         { return f.delegate.Group(group) }
func (f *Optimizing) Module(module string) Spec       { return f.delegate.Module(module) }
func (f *Optimizing) ModuleID(id ident.ModuleID) Spec { return f.delegate.ModuleID(id) }

func (f *Optimizing) AnyOf(a, b Spec) Spec {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Equal(b):
		return a
	case a.Kind() == KindEverything || b.Kind() == KindNothing:
		return a
	case b.Kind() == KindEverything || a.Kind() == KindNothing:
		return b
	}
	return f.delegate.AnyOf(a, b)
}

func (f *Optimizing) AllOf(a, b Spec) Spec {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Equal(b):
		return a
	case a.Kind() == KindNothing || b.Kind() == KindEverything:
		return a
	case b.Kind() == KindNothing || a.Kind() == KindEverything:
		return b
	}
	return f.delegate.AllOf(a, b)
}

func (f *Optimizing) AnyOfSet(specs []Spec) Spec {
	specs = specSet(nonNil(specs...)...).Items()
	switch len(specs) {
	case 0:
		return f.Nothing()
	case 1:
		return specs[0]
	case 2:
		return f.AnyOf(specs[0], specs[1])
	}
	return f.delegate.AnyOfSet(specs)
}

func (f *Optimizing) AllOfSet(specs []Spec) Spec {
	specs = specSet(nonNil(specs...)...).Items()
	switch len(specs) {
	case 0:
		return f.Nothing()
	case 1:
		return specs[0]
	case 2:
		return f.AllOf(specs[0], specs[1])
	}
	return f.delegate.AllOfSet(specs)
}

func (f *Optimizing) ModuleIDSet(ids []ident.ModuleID) Spec {
	ids = moduleIDSet(ids...).Items()
	switch len(ids) {
	case 0:
		return f.Nothing()
	case 1:
		return f.ModuleID(ids[0])
	}
	return f.delegate.ModuleIDSet(ids)
}

func (f *Optimizing) GroupSet(groups []string) Spec {
	groups = nameSet(groups...).Items()
	switch len(groups) {
	case 0:
		return f.Nothing()
	case 1:
		return f.Group(groups[0])
	}
	return f.delegate.GroupSet(groups)
}

func (f *Optimizing) ModuleSet(modules []string) Spec {
	modules = nameSet(modules...).Items()
	switch len(modules) {
	case 0:
		return f.Nothing()
	case 1:
		return f.Module(modules[0])
	}
	return f.delegate.ModuleSet(modules)
}
