package conflicts

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
)

// Participant is one version that took part in a conflict.
type Participant struct {
	Version     string
	ComponentID ident.ComponentID
}

// Conflict describes a resolved version conflict on a module. It is created
// once by the handler and never modified.
type Conflict struct {
	ModuleID        ident.ModuleID
	Participants    []Participant
	SelectionReason selection.Reason
}

// String renders "org:a:{1.0, 2.0} -> reason".
func (c Conflict) String() string {
	versions := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		versions[i] = p.Version
	}
	return fmt.Sprintf("%s:{%s} -> %s", c.ModuleID, strings.Join(versions, ", "), c.SelectionReason)
}

// CapabilityConflictResult describes the outcome of one capability conflict.
type CapabilityConflictResult struct {
	Capability ident.Capability
	// Candidates are the nodes that took part, rendered "component(variant)".
	Candidates []string
	// Winner is the selected component; zero when Rejected.
	Winner   ident.ComponentID
	Rejected bool
	Reason   string
}
