package excludes

import (
	"strings"
	"sync"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// Caching memoizes unions and intersections. Binary calls are keyed by the
// unordered pair of operands, so AnyOf(a, b) and AnyOf(b, a) return the same
// instance; collection calls are keyed by the canonical key of the set.
//
// Each cache is guarded by its own mutex which is released while a missing
// value is computed: the delegate may call back into the chain, and into this
// cache, for sub-expressions. When two computations race, the first value
// stored wins.
//
// Caching is safe for concurrent use.
type Caching struct {
	delegate Factory

	anyOfPairs *specCache[pairKey]
	allOfPairs *specCache[pairKey]
	anyOfSets  *specCache[string]
	allOfSets  *specCache[string]
}

var _ Factory = (*Caching)(nil)

// NewCaching wraps delegate.
func NewCaching(delegate Factory) *Caching {
	return &Caching{
		delegate:   delegate,
		anyOfPairs: newSpecCache[pairKey]("anyOf"),
		allOfPairs: newSpecCache[pairKey]("allOf"),
		anyOfSets:  newSpecCache[string]("anyOfSet"),
		allOfSets:  newSpecCache[string]("allOfSet"),
	}
}

func (f *Caching) Nothing() Spec                   { return f.delegate.Nothing() }
func (f *Caching) Everything() Spec                { return f.delegate.Everything() }
func (f *Caching) Group(group string) Spec         { return f.delegate.Group(group) }
func (f *Caching) Module(module string) Spec       { return f.delegate.Module(module) }
func (f *Caching) ModuleID(id ident.ModuleID) Spec { return f.delegate.ModuleID(id) }

func (f *Caching) ModuleIDSet(ids []ident.ModuleID) Spec { return f.delegate.ModuleIDSet(ids) }
func (f *Caching) GroupSet(groups []string) Spec         { return f.delegate.GroupSet(groups) }
func (f *Caching) ModuleSet(modules []string) Spec       { return f.delegate.ModuleSet(modules) }

func (f *Caching) AnyOf(a, b Spec) Spec {
	if a == nil || b == nil {
		return f.delegate.AnyOf(a, b)
	}
	return f.anyOfPairs.get(newPairKey(a, b), func() Spec { return f.delegate.AnyOf(a, b) })
}

func (f *Caching) AllOf(a, b Spec) Spec {
	if a == nil || b == nil {
		return f.delegate.AllOf(a, b)
	}
	return f.allOfPairs.get(newPairKey(a, b), func() Spec { return f.delegate.AllOf(a, b) })
}

func (f *Caching) AnyOfSet(specs []Spec) Spec {
	specs = nonNil(specs...)
	return f.anyOfSets.get(specSet(specs...).Key(), func() Spec { return f.delegate.AnyOfSet(specs) })
}

func (f *Caching) AllOfSet(specs []Spec) Spec {
	specs = nonNil(specs...)
	return f.allOfSets.get(specSet(specs...).Key(), func() Spec { return f.delegate.AllOfSet(specs) })
}

// Stats returns a snapshot of the hit and miss counters of every cache.
func (f *Caching) Stats() []CacheStats {
	return []CacheStats{
		f.anyOfPairs.stats(),
		f.allOfPairs.stats(),
		f.anyOfSets.stats(),
		f.allOfSets.stats(),
	}
}

// CacheStats describes one memoization cache.
type CacheStats struct {
	Name    string
	Hits    uint64
	Misses  uint64
	Entries int
}

// pairKey is an unordered pair of spec keys, ordered by hash then key.
type pairKey struct {
	first, second string
}

func newPairKey(a, b Spec) pairKey {
	ha, hb := a.Hash(), b.Hash()
	if ha > hb || (ha == hb && strings.Compare(a.Key(), b.Key()) > 0) {
		a, b = b, a
	}
	return pairKey{first: a.Key(), second: b.Key()}
}

type specCache[K comparable] struct {
	name string

	mu     sync.Mutex
	values map[K]Spec
	hits   uint64
	misses uint64
}

func newSpecCache[K comparable](name string) *specCache[K] {
	return &specCache[K]{name: name, values: make(map[K]Spec)}
}

func (c *specCache[K]) get(key K, compute func() Spec) Spec {
	c.mu.Lock()
	if v, ok := c.values[key]; ok {
		c.hits++
		c.mu.Unlock()
		return v
	}
	c.misses++
	c.mu.Unlock()

	v := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.values[key]; ok {
		return existing
	}
	c.values[key] = v
	return v
}

func (c *specCache[K]) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Name: c.name, Hits: c.hits, Misses: c.misses, Entries: len(c.values)}
}
