package lockfile

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/version"
)

// ModuleChange is a module present in only one of two lock files.
type ModuleChange struct {
	Module  string `json:"module"`
	Version string `json:"version"`
}

// ModuleUpgrade is a module whose selected version changed.
type ModuleUpgrade struct {
	Module     string `json:"module"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// ReplacementChange is a replaced module whose replacement changed. An empty
// side means the module was not replaced there.
type ReplacementChange struct {
	Module string `json:"module"`
	Old    string `json:"old,omitempty"`
	New    string `json:"new,omitempty"`
}

// Diff describes the differences between two lock files.
type Diff struct {
	Added        []ModuleChange      `json:"added,omitempty"`
	Removed      []ModuleChange      `json:"removed,omitempty"`
	Upgraded     []ModuleUpgrade     `json:"upgraded,omitempty"`
	Downgraded   []ModuleUpgrade     `json:"downgraded,omitempty"`
	Replacements []ReplacementChange `json:"replacements,omitempty"`

	// RejectedAdded and RejectedRemoved list components whose rejection
	// appeared or disappeared.
	RejectedAdded   []string `json:"rejected_added,omitempty"`
	RejectedRemoved []string `json:"rejected_removed,omitempty"`
}

// IsEmpty reports whether the lock files record the same resolution.
func (d *Diff) IsEmpty() bool {
	return d.TotalChanges() == 0
}

// TotalChanges returns the number of recorded differences.
func (d *Diff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded) +
		len(d.Replacements) + len(d.RejectedAdded) + len(d.RejectedRemoved)
}

// Summary returns a one-line description of the diff.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes"
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(d.Added), "added")
	add(len(d.Removed), "removed")
	add(len(d.Upgraded), "upgraded")
	add(len(d.Downgraded), "downgraded")
	add(len(d.Replacements), "replacement(s) changed")
	add(len(d.RejectedAdded), "newly rejected")
	add(len(d.RejectedRemoved), "no longer rejected")
	return strings.Join(parts, ", ")
}

// Compare computes the differences from old to new. Versions are ordered with
// compare, or version.Compare when nil. Nil lock files are treated as empty.
// Results are sorted by module.
func Compare(old, new *Lockfile, compare version.Comparator) *Diff {
	if old == nil {
		old = New()
	}
	if new == nil {
		new = New()
	}
	if compare == nil {
		compare = version.Compare
	}

	diff := &Diff{}
	for module, newVersion := range new.Modules {
		oldVersion, existed := old.Modules[module]
		if !existed {
			diff.Added = append(diff.Added, ModuleChange{Module: module, Version: newVersion})
			continue
		}
		if oldVersion == newVersion {
			continue
		}
		change := ModuleUpgrade{Module: module, OldVersion: oldVersion, NewVersion: newVersion}
		switch c := compare(newVersion, oldVersion); {
		case c > 0:
			diff.Upgraded = append(diff.Upgraded, change)
		case c < 0:
			diff.Downgraded = append(diff.Downgraded, change)
		}
	}
	for module, oldVersion := range old.Modules {
		if _, exists := new.Modules[module]; !exists {
			diff.Removed = append(diff.Removed, ModuleChange{Module: module, Version: oldVersion})
		}
	}

	for module, by := range new.Replacements {
		if old.Replacements[module] != by {
			diff.Replacements = append(diff.Replacements, ReplacementChange{Module: module, Old: old.Replacements[module], New: by})
		}
	}
	for module, by := range old.Replacements {
		if _, exists := new.Replacements[module]; !exists {
			diff.Replacements = append(diff.Replacements, ReplacementChange{Module: module, Old: by})
		}
	}

	for component := range new.Rejected {
		if _, existed := old.Rejected[component]; !existed {
			diff.RejectedAdded = append(diff.RejectedAdded, component)
		}
	}
	for component := range old.Rejected {
		if _, exists := new.Rejected[component]; !exists {
			diff.RejectedRemoved = append(diff.RejectedRemoved, component)
		}
	}

	byModule := func(a, b ModuleChange) int { return cmp.Compare(a.Module, b.Module) }
	slices.SortFunc(diff.Added, byModule)
	slices.SortFunc(diff.Removed, byModule)
	byUpgrade := func(a, b ModuleUpgrade) int { return cmp.Compare(a.Module, b.Module) }
	slices.SortFunc(diff.Upgraded, byUpgrade)
	slices.SortFunc(diff.Downgraded, byUpgrade)
	slices.SortFunc(diff.Replacements, func(a, b ReplacementChange) int { return cmp.Compare(a.Module, b.Module) })
	slices.Sort(diff.RejectedAdded)
	slices.Sort(diff.RejectedRemoved)
	return diff
}
