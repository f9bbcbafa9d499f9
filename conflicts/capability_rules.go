package conflicts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// CapabilityResolutionRule is a user rule resolving conflicts on the
// capability Group:Name.
type CapabilityResolutionRule struct {
	Group  string
	Name   string
	Action func(*RuleDetails) error
}

// Matches reports whether the rule applies to capability.
func (r CapabilityResolutionRule) Matches(capability ident.Capability) bool {
	return r.Group == capability.Group && r.Name == capability.Name
}

// RuleDetails is the view of a capability conflict given to a rule.
type RuleDetails struct {
	capability ident.Capability
	candidates []Candidate
	comparator version.Comparator

	selected *Candidate
	narrowed []Candidate
	reason   string
}

// Capability returns the capability in conflict.
func (d *RuleDetails) Capability() ident.Capability { return d.capability }

// Candidates returns the candidates of the conflict.
func (d *RuleDetails) Candidates() []Candidate { return slices.Clone(d.candidates) }

// Select picks c, which must be one of the candidates.
func (d *RuleDetails) Select(c Candidate) error {
	for _, candidate := range d.candidates {
		if candidate.Node == c.Node {
			d.selected = &candidate
			return nil
		}
	}
	return fmt.Errorf("%s is not a candidate for capability %s", c, d.capability.ID())
}

// SelectNotation picks the candidate designated by notation: "group:name",
// "group:name:version" or a project path.
func (d *RuleDetails) SelectNotation(notation string) error {
	for _, c := range d.candidates {
		if c.matchesNotation(notation) {
			d.selected = &c
			return nil
		}
	}
	valid := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		valid[i] = c.Node.Component().ComponentID().DisplayName()
	}
	slices.Sort(valid)
	return fmt.Errorf("selected candidate '%s' is not a valid candidate, valid candidates are: [%s]", notation, strings.Join(valid, ", "))
}

// SelectHighestVersion picks the candidate providing the highest version of
// the capability. When several candidates tie, they are kept for the
// resolvers that follow.
func (d *RuleDetails) SelectHighestVersion() {
	var highest []Candidate
	for _, c := range d.candidates {
		switch {
		case len(highest) == 0:
			highest = []Candidate{c}
		default:
			cmp := d.comparator(c.Capability.Version, highest[0].Capability.Version)
			if cmp > 0 {
				highest = []Candidate{c}
			} else if cmp == 0 {
				highest = append(highest, c)
			}
		}
	}
	if len(highest) == 1 {
		d.selected = &highest[0]
		if d.reason == "" {
			d.reason = "highest capability version " + highest[0].Capability.Version
		}
		return
	}
	d.narrowed = highest
}

// Because sets the reason reported with the selection.
func (d *RuleDetails) Because(reason string) { d.reason = reason }

// UserCapabilityResolver applies the rules matching a conflict, in order.
// A rule error or panic aborts resolution with an *InvalidUserCodeError.
type UserCapabilityResolver struct {
	Rules []CapabilityResolutionRule
	// Comparator orders capability versions. Defaults to version.Compare.
	Comparator version.Comparator
}

// Resolve implements CapabilityResolver.
func (r *UserCapabilityResolver) Resolve(details *CapabilityResolutionDetails) error {
	cmp := r.Comparator
	if cmp == nil {
		cmp = version.Compare
	}
	for _, rule := range r.Rules {
		if !rule.Matches(details.Capability()) {
			continue
		}
		rd := &RuleDetails{
			capability: details.Capability(),
			candidates: details.Candidates(),
			comparator: cmp,
		}
		if err := runRule(rule, rd); err != nil {
			return &InvalidUserCodeError{Capability: details.Capability().ID(), Err: err}
		}
		if rd.selected != nil {
			reason := rd.reason
			if reason == "" {
				reason = "explicit selection of " + rd.selected.String()
			}
			details.Select(*rd.selected)
			details.Because(reason)
			return nil
		}
		if rd.narrowed != nil {
			details.narrow(rd.narrowed)
		}
		if rd.reason != "" {
			details.Because(rd.reason)
		}
	}
	return nil
}

func runRule(rule CapabilityResolutionRule, d *RuleDetails) (err error) {
	if rule.Action == nil {
		return errors.New("rule has no action")
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return rule.Action(d)
}
