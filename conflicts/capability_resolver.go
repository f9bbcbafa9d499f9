package conflicts

import (
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// CapabilityResolutionDetails is the state of one capability conflict while
// it goes through the resolver chain.
type CapabilityResolutionDetails struct {
	capability ident.Capability
	candidates []Candidate
	selected   *Candidate
	rejected   bool
	reason     string
}

// NewCapabilityResolutionDetails returns details for a conflict on
// capability between candidates.
func NewCapabilityResolutionDetails(capability ident.Capability, candidates []Candidate) *CapabilityResolutionDetails {
	return &CapabilityResolutionDetails{capability: capability, candidates: candidates}
}

// Capability returns the versionless capability in conflict.
func (d *CapabilityResolutionDetails) Capability() ident.Capability { return d.capability }

// Candidates returns the remaining candidates.
func (d *CapabilityResolutionDetails) Candidates() []Candidate { return d.candidates }

// Select records the winner.
func (d *CapabilityResolutionDetails) Select(c Candidate) { d.selected = &c }

// Reject records that every remaining candidate is rejected.
func (d *CapabilityResolutionDetails) Reject() { d.rejected = true }

// Because sets the reason reported with the decision.
func (d *CapabilityResolutionDetails) Because(reason string) { d.reason = reason }

// Selected returns the winner, if any.
func (d *CapabilityResolutionDetails) Selected() (Candidate, bool) {
	if d.selected == nil {
		return Candidate{}, false
	}
	return *d.selected, true
}

// IsRejected reports whether the candidates were rejected.
func (d *CapabilityResolutionDetails) IsRejected() bool { return d.rejected }

// Reason returns the reason set with Because.
func (d *CapabilityResolutionDetails) Reason() string { return d.reason }

// HasResult reports whether a winner was selected or the candidates rejected.
func (d *CapabilityResolutionDetails) HasResult() bool {
	return d.selected != nil || d.rejected
}

func (d *CapabilityResolutionDetails) narrow(candidates []Candidate) {
	d.candidates = candidates
}

// CapabilityResolver is one step of a CapabilityConflictResolver chain. A
// resolver may select, reject, narrow the candidates, or do nothing.
type CapabilityResolver interface {
	Resolve(details *CapabilityResolutionDetails) error
}

// CapabilityConflictResolver runs resolvers in order until one of them
// decides.
type CapabilityConflictResolver struct {
	resolvers []CapabilityResolver
}

// NewCapabilityConflictResolver returns a resolver running resolvers in
// order.
func NewCapabilityConflictResolver(resolvers ...CapabilityResolver) *CapabilityConflictResolver {
	return &CapabilityConflictResolver{resolvers: resolvers}
}

// NewDefaultCapabilityConflictResolver returns the standard chain: the user
// rules, then LastCandidateCapabilityResolver, then
// RejectRemainingCandidates.
func NewDefaultCapabilityConflictResolver(rules []CapabilityResolutionRule, cmp version.Comparator) *CapabilityConflictResolver {
	return NewCapabilityConflictResolver(
		&UserCapabilityResolver{Rules: rules, Comparator: cmp},
		LastCandidateCapabilityResolver{},
		RejectRemainingCandidates{},
	)
}

// Resolve runs the chain. The first error aborts it.
func (r *CapabilityConflictResolver) Resolve(details *CapabilityResolutionDetails) error {
	for _, resolver := range r.resolvers {
		if details.HasResult() {
			return nil
		}
		if err := resolver.Resolve(details); err != nil {
			return err
		}
	}
	return nil
}

// LastCandidateCapabilityResolver selects the candidate when exactly one is
// left.
type LastCandidateCapabilityResolver struct{}

// Resolve implements CapabilityResolver.
func (LastCandidateCapabilityResolver) Resolve(details *CapabilityResolutionDetails) error {
	if len(details.Candidates()) == 1 {
		details.Select(details.Candidates()[0])
	}
	return nil
}

// RejectRemainingCandidates rejects every candidate left.
type RejectRemainingCandidates struct{}

// Resolve implements CapabilityResolver.
func (RejectRemainingCandidates) Resolve(details *CapabilityResolutionDetails) error {
	details.Reject()
	return nil
}

var (
	_ CapabilityResolver = (*UserCapabilityResolver)(nil)
	_ CapabilityResolver = LastCandidateCapabilityResolver{}
	_ CapabilityResolver = RejectRemainingCandidates{}
)
