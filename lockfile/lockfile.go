package lockfile

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/albertocavalcante/go-resolveengine/graph"
)

// CurrentVersion is the lock file format written by this package.
const CurrentVersion = 1

// Lockfile is the recorded outcome of a resolution.
type Lockfile struct {
	Version int `json:"lockFileVersion"`

	// ScenarioHash is the hash of the scenario the resolution ran on.
	ScenarioHash string `json:"scenarioHash,omitempty"`

	// Modules maps "group:name" to the selected version.
	Modules map[string]string `json:"modules"`

	// Replacements maps a replaced module to the component selected in its
	// place.
	Replacements map[string]string `json:"replacements"`

	// Rejected maps a rejected component to the rejection reason.
	Rejected map[string]string `json:"rejected"`
}

// New returns an empty lock file of the current version.
func New() *Lockfile {
	return &Lockfile{
		Version:      CurrentVersion,
		Modules:      make(map[string]string),
		Replacements: make(map[string]string),
		Rejected:     make(map[string]string),
	}
}

// FromGraph records the selection state of a resolved graph.
func FromGraph(g *graph.Graph) *Lockfile {
	lf := New()
	for _, m := range g.Modules() {
		selected := m.SelectedComponent()
		if selected == nil {
			continue
		}
		if m.IsReplaced() {
			lf.Replacements[m.ID().String()] = selected.ID().String()
			continue
		}
		lf.Modules[m.ID().String()] = selected.Version()
	}
	for _, c := range g.RejectedComponents() {
		lf.Rejected[c.ID().String()] = c.RejectionReason()
	}
	return lf
}

// IsCompatible reports whether the lock file was written in the current
// format.
func (l *Lockfile) IsCompatible() bool {
	return l.Version == CurrentVersion
}

// MatchesScenario reports whether content hashes to the recorded scenario
// hash. A lock file without a hash matches any scenario.
func (l *Lockfile) MatchesScenario(content []byte) bool {
	return l.ScenarioHash == "" || VerifyHash(content, l.ScenarioHash)
}

// HashContent returns the "sha256:<hex>" digest of content.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(h[:])
}

// VerifyHash reports whether content hashes to expected.
func VerifyHash(content []byte, expected string) bool {
	return HashContent(content) == expected
}
