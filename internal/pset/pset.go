// Package pset provides persistent (immutable) ordered sets.
//
// A Set is a value: every operation returns a new Set and leaves the receiver
// untouched, so sets can be shared freely between goroutines and embedded in
// other immutable values. Sets are backed by an immutable radix tree keyed by
// a canonical string key per element, which gives structural sharing between
// versions, deterministic iteration order and cheap value equality.
package pset

import (
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix/v2"
)

// KeyFunc returns the canonical key of an element. Two elements with the same
// key are the same element as far as the set is concerned.
type KeyFunc[T any] func(T) string

// Set is a persistent set of T ordered by element key.
type Set[T any] struct {
	tree *iradix.Tree[T]
	key  KeyFunc[T]
}

// New creates a set containing items, using key to identify elements.
func New[T any](key KeyFunc[T], items ...T) Set[T] {
	if len(items) == 0 {
		return Set[T]{tree: iradix.New[T](), key: key}
	}
	txn := iradix.New[T]().Txn()
	for _, item := range items {
		txn.Insert([]byte(key(item)), item)
	}
	return Set[T]{tree: txn.Commit(), key: key}
}

// Strings creates a set of strings keyed by the strings themselves.
func Strings(items ...string) Set[string] {
	return New(identity, items...)
}

func identity(s string) string { return s }

var keyEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`)

// Len returns the number of elements.
func (s Set[T]) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// IsEmpty reports whether the set has no elements.
func (s Set[T]) IsEmpty() bool {
	return s.Len() == 0
}

// Contains reports whether item is in the set.
func (s Set[T]) Contains(item T) bool {
	if s.tree == nil {
		return false
	}
	_, ok := s.tree.Get([]byte(s.key(item)))
	return ok
}

// Plus returns a set that also contains item.
func (s Set[T]) Plus(item T) Set[T] {
	s.mustHaveKey()
	tree, _, _ := s.root().Insert([]byte(s.key(item)), item)
	return Set[T]{tree: tree, key: s.key}
}

// Minus returns a set without item.
func (s Set[T]) Minus(item T) Set[T] {
	if s.Len() == 0 {
		return s
	}
	tree, _, ok := s.tree.Delete([]byte(s.key(item)))
	if !ok {
		return s
	}
	return Set[T]{tree: tree, key: s.key}
}

// Union returns the elements present in either set.
func (s Set[T]) Union(other Set[T]) Set[T] {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}
	txn := s.tree.Txn()
	other.tree.Root().Walk(func(k []byte, v T) bool {
		txn.Insert(k, v)
		return false
	})
	return Set[T]{tree: txn.Commit(), key: s.key}
}

// Intersect returns the elements present in both sets.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	return s.Filter(func(item T) bool { return other.Contains(item) })
}

// Except returns the elements of s not present in other.
func (s Set[T]) Except(other Set[T]) Set[T] {
	if other.Len() == 0 || s.Len() == 0 {
		return s
	}
	return s.Filter(func(item T) bool { return !other.Contains(item) })
}

// Filter returns the elements for which keep returns true.
func (s Set[T]) Filter(keep func(T) bool) Set[T] {
	if s.Len() == 0 {
		return s
	}
	txn := s.tree.Txn()
	changed := false
	s.tree.Root().Walk(func(k []byte, v T) bool {
		if !keep(v) {
			txn.Delete(k)
			changed = true
		}
		return false
	})
	if !changed {
		return s
	}
	return Set[T]{tree: txn.Commit(), key: s.key}
}

// Each calls fn for every element in key order until fn returns false.
func (s Set[T]) Each(fn func(T) bool) {
	if s.Len() == 0 {
		return
	}
	s.tree.Root().Walk(func(_ []byte, v T) bool {
		return !fn(v)
	})
}

// Any reports whether pred holds for at least one element.
func (s Set[T]) Any(pred func(T) bool) bool {
	found := false
	s.Each(func(item T) bool {
		if pred(item) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Items returns the elements in key order.
func (s Set[T]) Items() []T {
	items := make([]T, 0, s.Len())
	s.Each(func(item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

// First returns the element with the smallest key.
func (s Set[T]) First() (T, bool) {
	var zero T
	if s.Len() == 0 {
		return zero, false
	}
	_, v, ok := s.tree.Root().Minimum()
	return v, ok
}

// Equal reports whether both sets contain elements with the same keys.
func (s Set[T]) Equal(other Set[T]) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.tree == other.tree {
		return true
	}
	equal := true
	s.tree.Root().Walk(func(k []byte, _ T) bool {
		if _, ok := other.tree.Get(k); !ok {
			equal = false
			return true
		}
		return false
	})
	return equal
}

// Key returns the canonical encoding of the set: element keys in order,
// comma separated. Commas and backslashes inside a key are escaped with a
// backslash, so distinct sets never share an encoding.
func (s Set[T]) Key() string {
	var b strings.Builder
	first := true
	if s.Len() == 0 {
		return ""
	}
	s.tree.Root().Walk(func(k []byte, _ T) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		keyEscaper.WriteString(&b, string(k))
		return false
	})
	return b.String()
}

// KeyFunc returns the function used to identify elements.
func (s Set[T]) KeyFunc() KeyFunc[T] {
	return s.key
}

func (s Set[T]) root() *iradix.Tree[T] {
	if s.tree == nil {
		return iradix.New[T]()
	}
	return s.tree
}

func (s Set[T]) mustHaveKey() {
	if s.key == nil {
		panic("pset: zero Set has no key function, use pset.New")
	}
}
