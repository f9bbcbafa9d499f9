package conflicts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/version"
)

// ModuleConflictResolver picks the winner of a module conflict. A resolver
// either selects a candidate, records a failure, or leaves the details
// untouched to let the next resolver of a chain decide.
type ModuleConflictResolver interface {
	Select(details *ResolverDetails)
}

// ResolverDetails carries the candidates of one conflict and the decision.
type ResolverDetails struct {
	candidates []Component
	selected   Component
	failure    error
}

// NewResolverDetails returns details for candidates.
func NewResolverDetails(candidates []Component) *ResolverDetails {
	return &ResolverDetails{candidates: candidates}
}

// Candidates returns the conflicting components.
func (d *ResolverDetails) Candidates() []Component { return d.candidates }

// Select records the winner.
func (d *ResolverDetails) Select(c Component) { d.selected = c }

// Fail records a failure, which aborts resolution.
func (d *ResolverDetails) Fail(err error) { d.failure = err }

// Selected returns the winner, or nil.
func (d *ResolverDetails) Selected() Component { return d.selected }

// Failure returns the recorded failure, or nil.
func (d *ResolverDetails) Failure() error { return d.failure }

// HasResult reports whether a winner or a failure was recorded.
func (d *ResolverDetails) HasResult() bool {
	return d.selected != nil || d.failure != nil
}

// LatestModuleConflictResolver selects the highest version.
//
// Candidates are first narrowed to the highest base version ("1.2" for
// "1.2-rc1"). Among those, working down from the highest version, the first
// unqualified version wins, then the first with "release" status; failing
// both, the highest version wins. Rejected candidates are only considered
// when every candidate is rejected.
type LatestModuleConflictResolver struct {
	// Comparator orders versions. Defaults to version.Compare.
	Comparator version.Comparator
}

// Select implements ModuleConflictResolver.
func (r LatestModuleConflictResolver) Select(details *ResolverDetails) {
	cmp := r.Comparator
	if cmp == nil {
		cmp = version.Compare
	}

	candidates := details.Candidates()
	if live := slices.DeleteFunc(slices.Clone(candidates), Component.IsRejected); len(live) > 0 {
		candidates = live
	}

	var base string
	var matches []Component
	for _, c := range candidates {
		b := version.Parse(c.Version()).BaseVersion().String()
		switch {
		case matches == nil || cmp(b, base) > 0:
			base = b
			matches = []Component{c}
		case cmp(b, base) == 0:
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return
	}
	if len(matches) == 1 {
		details.Select(matches[0])
		return
	}

	slices.SortStableFunc(matches, func(a, b Component) int {
		return cmp(b.Version(), a.Version())
	})
	for _, c := range matches {
		if !version.Parse(c.Version()).IsQualified() {
			details.Select(c)
			return
		}
		if c.Status() == "release" {
			details.Select(c)
			return
		}
	}
	details.Select(matches[0])
}

// PreferProjectModulesResolver selects the candidate built by a project of
// the current build. Two project candidates are a failure. Without a project
// candidate the decision is left to Delegate, or to the next resolver.
type PreferProjectModulesResolver struct {
	Delegate ModuleConflictResolver
}

// Select implements ModuleConflictResolver.
func (r PreferProjectModulesResolver) Select(details *ResolverDetails) {
	var projects []Component
	for _, c := range details.Candidates() {
		if c.ComponentID().IsProject() {
			projects = append(projects, c)
		}
	}
	switch len(projects) {
	case 0:
		if r.Delegate != nil {
			r.Delegate.Select(details)
		}
	case 1:
		details.Select(projects[0])
	default:
		names := make([]string, len(projects))
		for i, p := range projects {
			names[i] = p.ComponentID().DisplayName()
		}
		details.Fail(fmt.Errorf("multiple projects in conflict: %s", strings.Join(names, ", ")))
	}
}

// FailOnVersionConflictResolver fails as soon as more than one version of
// a module is requested.
type FailOnVersionConflictResolver struct {
	// Comparator orders the versions listed in the error.
	Comparator version.Comparator
}

// Select implements ModuleConflictResolver.
func (r FailOnVersionConflictResolver) Select(details *ResolverDetails) {
	candidates := details.Candidates()
	if len(candidates) == 0 {
		return
	}
	versions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !slices.Contains(versions, c.Version()) {
			versions = append(versions, c.Version())
		}
	}
	if len(candidates) == 1 {
		details.Select(candidates[0])
		return
	}
	version.Sort(versions, r.Comparator)
	slices.Reverse(versions)
	details.Fail(&VersionConflictError{
		Module:   candidates[0].ID().Module,
		Versions: versions,
	})
}

// CompositeConflictResolver asks each resolver in turn until one of them
// selects a candidate or fails.
type CompositeConflictResolver struct {
	Resolvers []ModuleConflictResolver
}

// NewCompositeConflictResolver returns a composite of resolvers.
func NewCompositeConflictResolver(resolvers ...ModuleConflictResolver) *CompositeConflictResolver {
	return &CompositeConflictResolver{Resolvers: resolvers}
}

// Select implements ModuleConflictResolver. If no resolver decides, the
// details fail with an *InternalStateError.
func (r *CompositeConflictResolver) Select(details *ResolverDetails) {
	for _, resolver := range r.Resolvers {
		resolver.Select(details)
		if details.HasResult() {
			return
		}
	}
	names := make([]string, len(details.Candidates()))
	for i, c := range details.Candidates() {
		names[i] = c.ID().String()
	}
	details.Fail(&InternalStateError{
		Message: fmt.Sprintf("no resolver out of %d selected a candidate among [%s]", len(r.Resolvers), strings.Join(names, ", ")),
	})
}

var (
	_ ModuleConflictResolver = LatestModuleConflictResolver{}
	_ ModuleConflictResolver = PreferProjectModulesResolver{}
	_ ModuleConflictResolver = FailOnVersionConflictResolver{}
	_ ModuleConflictResolver = (*CompositeConflictResolver)(nil)
)
