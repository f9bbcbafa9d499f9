package conflicts

import "github.com/albertocavalcante/go-resolveengine/ident"

// Replacement declares that a module was replaced by another one, for example
// after a library was renamed.
type Replacement struct {
	Target ident.ModuleID
	Reason string
}

// Replacements is the set of declared module replacements.
type Replacements struct {
	bySource map[ident.ModuleID]Replacement
}

// NewReplacements returns an empty replacement set.
func NewReplacements() *Replacements {
	return &Replacements{bySource: make(map[ident.ModuleID]Replacement)}
}

// Add declares that source is replaced by target. A later declaration for the
// same source wins.
func (r *Replacements) Add(source, target ident.ModuleID, reason string) {
	r.bySource[source] = Replacement{Target: target, Reason: reason}
}

// For returns the replacement declared for source.
func (r *Replacements) For(source ident.ModuleID) (Replacement, bool) {
	if r == nil {
		return Replacement{}, false
	}
	rep, ok := r.bySource[source]
	return rep, ok
}

// Len returns the number of declared replacements.
func (r *Replacements) Len() int {
	if r == nil {
		return 0
	}
	return len(r.bySource)
}
