package conflicts

import "github.com/albertocavalcante/go-resolveengine/ident"

// PotentialConflict is the outcome of registering a module: either no
// conflict, or the pending conflict the module now participates in.
type PotentialConflict interface {
	// ConflictExists reports whether a conflict was registered.
	ConflictExists() bool
	// Participants returns the participating modules, empty if no conflict.
	Participants() []ident.ModuleID
}

// noConflict is the PotentialConflict of a registration that found none.
type noConflict struct{}

func (noConflict) ConflictExists() bool            { return false }
func (noConflict) Participants() []ident.ModuleID { return nil }

// Container collects pending conflicts between elements keyed by Key. Elements
// are replaced by other elements through replacedBy links; registering an
// element that shares a participant with a pending conflict merges into it,
// so conflicts are resolved in the order they were first seen.
type Container[Key comparable, T any] struct {
	pending        []*Pending[Key, T]
	elements       map[Key][]T
	targetToSource map[Key]Key
}

// Pending is a conflict waiting in a Container.
type Pending[Key comparable, T any] struct {
	participants []Key
	candidates   []T
}

// Participants returns the participating keys in registration order.
func (p *Pending[Key, T]) Participants() []Key {
	if p == nil {
		return nil
	}
	return append([]Key(nil), p.participants...)
}

// Candidates returns the candidates to choose from.
func (p *Pending[Key, T]) Candidates() []T {
	if p == nil {
		return nil
	}
	return append([]T(nil), p.candidates...)
}

// ConflictExists reports whether p is a real conflict.
func (p *Pending[Key, T]) ConflictExists() bool { return p != nil }

func (p *Pending[Key, T]) hasParticipant(k Key) bool {
	for _, existing := range p.participants {
		if existing == k {
			return true
		}
	}
	return false
}

func (p *Pending[Key, T]) addParticipant(k Key) {
	if !p.hasParticipant(k) {
		p.participants = append(p.participants, k)
	}
}

// NewContainer returns an empty container.
func NewContainer[Key comparable, T any]() *Container[Key, T] {
	return &Container[Key, T]{
		elements:       make(map[Key][]T),
		targetToSource: make(map[Key]Key),
	}
}

// Add registers the candidates of target. replacedBy, when non-nil, names
// the element that replaces target. It returns the pending conflict target
// participates in, or nil.
func (c *Container[Key, T]) Add(target Key, candidates []T, replacedBy *Key) *Pending[Key, T] {
	c.elements[target] = candidates
	if replacedBy != nil {
		c.targetToSource[*replacedBy] = target
		if _, seen := c.elements[*replacedBy]; seen {
			// the replacement is already known
			return c.register(target, *replacedBy)
		}
	}
	if source, ok := c.targetToSource[target]; ok {
		// target replaces an element seen earlier
		return c.register(source, target)
	}
	if len(candidates) > 1 {
		return c.register(target, target)
	}
	return nil
}

// register records a conflict between target and replacedBy. Only the
// candidates of the replacement matter.
func (c *Container[Key, T]) register(target, replacedBy Key) *Pending[Key, T] {
	candidates := c.elements[replacedBy]
	for _, p := range c.pending {
		if p.hasParticipant(target) || p.hasParticipant(replacedBy) {
			p.candidates = candidates
			p.addParticipant(target)
			p.addParticipant(replacedBy)
			return p
		}
	}
	p := &Pending[Key, T]{candidates: candidates}
	p.addParticipant(target)
	p.addParticipant(replacedBy)
	c.pending = append(c.pending, p)
	return p
}

// Pop removes and returns the oldest pending conflict, or nil.
func (c *Container[Key, T]) Pop() *Pending[Key, T] {
	if len(c.pending) == 0 {
		return nil
	}
	p := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	return p
}

// Len returns the number of pending conflicts.
func (c *Container[Key, T]) Len() int { return len(c.pending) }

// IsEmpty reports whether no conflict is pending.
func (c *Container[Key, T]) IsEmpty() bool { return len(c.pending) == 0 }
