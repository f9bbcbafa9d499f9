package resolveengine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/graph"
)

// ResolutionReport is the outcome of Engine.Resolve.
type ResolutionReport struct {
	Graph               *graph.Graph
	ModuleConflicts     []conflicts.Conflict
	CapabilityConflicts []conflicts.CapabilityConflictResult
}

// Rejected returns the components rejected by capability conflicts.
func (r *ResolutionReport) Rejected() []*graph.ComponentState {
	if r.Graph == nil {
		return nil
	}
	return r.Graph.RejectedComponents()
}

// HasFailures reports whether any component was rejected.
func (r *ResolutionReport) HasFailures() bool {
	return len(r.Rejected()) > 0
}

// String renders one line per resolved conflict followed by the rejections.
func (r *ResolutionReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module conflicts: %d\n", len(r.ModuleConflicts))
	for _, c := range r.ModuleConflicts {
		fmt.Fprintf(&b, "  %s\n", c)
	}
	fmt.Fprintf(&b, "Capability conflicts: %d\n", len(r.CapabilityConflicts))
	for _, c := range r.CapabilityConflicts {
		fmt.Fprintf(&b, "  %s\n", describeCapabilityConflict(c))
	}
	if rejected := r.Rejected(); len(rejected) > 0 {
		b.WriteString("Rejected:\n")
		for _, c := range rejected {
			fmt.Fprintf(&b, "  %s: %s\n", c, c.RejectionReason())
		}
	}
	return b.String()
}

func describeCapabilityConflict(c conflicts.CapabilityConflictResult) string {
	candidates := strings.Join(c.Candidates, ", ")
	if c.Rejected {
		return fmt.Sprintf("%s: [%s] rejected", c.Capability.ID(), candidates)
	}
	s := fmt.Sprintf("%s: [%s] -> %s", c.Capability.ID(), candidates, c.Winner.DisplayName())
	if c.Reason != "" {
		s += " (" + c.Reason + ")"
	}
	return s
}

type jsonReport struct {
	Graph               *graph.Report            `json:"graph"`
	ModuleConflicts     []jsonModuleConflict     `json:"module_conflicts"`
	CapabilityConflicts []jsonCapabilityConflict `json:"capability_conflicts"`
}

type jsonModuleConflict struct {
	Module   string   `json:"module"`
	Versions []string `json:"versions"`
	Reason   string   `json:"reason"`
}

type jsonCapabilityConflict struct {
	Capability string   `json:"capability"`
	Candidates []string `json:"candidates"`
	Winner     string   `json:"winner,omitempty"`
	Rejected   bool     `json:"rejected,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// ToJSON renders the report, including the resolved graph, as indented JSON.
func (r *ResolutionReport) ToJSON() ([]byte, error) {
	out := jsonReport{
		ModuleConflicts:     make([]jsonModuleConflict, 0, len(r.ModuleConflicts)),
		CapabilityConflicts: make([]jsonCapabilityConflict, 0, len(r.CapabilityConflicts)),
	}
	if r.Graph != nil {
		out.Graph = r.Graph.Report()
	}
	for _, c := range r.ModuleConflicts {
		versions := make([]string, len(c.Participants))
		for i, p := range c.Participants {
			versions[i] = p.Version
		}
		out.ModuleConflicts = append(out.ModuleConflicts, jsonModuleConflict{
			Module:   c.ModuleID.String(),
			Versions: versions,
			Reason:   c.SelectionReason.String(),
		})
	}
	for _, c := range r.CapabilityConflicts {
		jc := jsonCapabilityConflict{
			Capability: c.Capability.ID(),
			Candidates: c.Candidates,
			Rejected:   c.Rejected,
			Reason:     c.Reason,
		}
		if !c.Rejected {
			jc.Winner = c.Winner.DisplayName()
		}
		out.CapabilityConflicts = append(out.CapabilityConflicts, jc)
	}
	return json.MarshalIndent(out, "", "  ")
}
