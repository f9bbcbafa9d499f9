package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const separatorWidth = 60 // Width of separator lines in text output

// Report is the JSON rendering of a resolved graph.
type Report struct {
	Root    string         `json:"root,omitempty"`
	Modules []ModuleReport `json:"modules"`
}

// ModuleReport describes one module.
type ModuleReport struct {
	Module     string            `json:"module"`
	Selected   string            `json:"selected,omitempty"`
	ReplacedBy string            `json:"replacedBy,omitempty"`
	Components []ComponentReport `json:"components"`
}

// ComponentReport describes one candidate component.
type ComponentReport struct {
	ID        string       `json:"id"`
	State     string       `json:"state"`
	Status    string       `json:"status,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Rejection string       `json:"rejection,omitempty"`
	Nodes     []NodeReport `json:"nodes,omitempty"`
}

// NodeReport describes one node.
type NodeReport struct {
	Variant      string   `json:"variant"`
	Selected     bool     `json:"selected"`
	Capabilities []string `json:"capabilities,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Report builds the JSON report of the graph.
func (g *Graph) Report() *Report {
	r := &Report{Modules: make([]ModuleReport, 0, len(g.order))}
	if g.root != nil {
		r.Root = g.root.String()
	}
	for _, m := range g.Modules() {
		mr := ModuleReport{Module: m.id.String()}
		if m.selected != nil {
			if m.IsReplaced() {
				mr.ReplacedBy = m.selected.String()
			} else {
				mr.Selected = m.selected.Version()
			}
		}
		for _, c := range m.versions {
			cr := ComponentReport{
				ID:        c.String(),
				State:     c.state.String(),
				Status:    c.status,
				Reason:    c.reason.String(),
				Rejection: c.rejection,
			}
			for _, n := range c.nodes {
				nr := NodeReport{Variant: n.name, Selected: n.IsSelected()}
				for _, capability := range n.capabilities {
					nr.Capabilities = append(nr.Capabilities, capability.String())
				}
				for _, dep := range n.Dependencies() {
					nr.Dependencies = append(nr.Dependencies, dep.String())
				}
				cr.Nodes = append(cr.Nodes, nr)
			}
			mr.Components = append(mr.Components, cr)
		}
		r.Modules = append(r.Modules, mr)
	}
	return r
}

// ToJSON outputs the graph report as indented JSON.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g.Report(), "", "  ")
}

// ToDOT outputs the node graph in Graphviz DOT format. Selected nodes are
// solid, evicted ones dashed and rejected ones red.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, m := range g.Modules() {
		for _, c := range m.versions {
			for _, n := range c.nodes {
				label := fmt.Sprintf("%s\\n%s\\n%s", m.id, c.Version(), n.name)
				attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
				switch {
				case n.root:
					attrs += ", style=bold"
				case c.IsRejected():
					attrs += ", color=red"
				case !n.IsSelected():
					attrs += ", style=dashed"
				}
				buf.WriteString(fmt.Sprintf("  %q [%s];\n", n.String(), attrs))
			}
		}
	}

	buf.WriteString("\n")

	for _, m := range g.Modules() {
		for _, c := range m.versions {
			for _, n := range c.nodes {
				for _, dep := range n.Dependencies() {
					buf.WriteString(fmt.Sprintf("  %q -> %q;\n", n.String(), dep.String()))
				}
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a human-readable representation of the resolved graph.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	root := "<none>"
	if g.root != nil {
		root = g.root.String()
	}
	buf.WriteString(fmt.Sprintf("Dependency Graph (root: %s)\n", root))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	buf.WriteString(fmt.Sprintf("Modules: %d\n", stats.Modules))
	buf.WriteString(fmt.Sprintf("Components: %d (selected %d, evicted %d)\n", stats.Components, stats.Selected, stats.Evicted))
	if stats.Rejected > 0 {
		buf.WriteString(fmt.Sprintf("Rejected: %d\n", stats.Rejected))
	}
	if stats.Replaced > 0 {
		buf.WriteString(fmt.Sprintf("Replaced modules: %d\n", stats.Replaced))
	}
	buf.WriteString("\n")

	if g.root != nil {
		buf.WriteString("Dependency Tree:\n")
		g.printTree(&buf, g.root, "", true, make(map[*NodeState]bool))
		buf.WriteString("\n")
	}

	buf.WriteString("Selection:\n")
	for _, m := range g.Modules() {
		switch {
		case m.selected == nil:
			buf.WriteString(fmt.Sprintf("  %s: none\n", m.id))
		case m.IsReplaced():
			buf.WriteString(fmt.Sprintf("  %s: replaced by %s\n", m.id, m.selected))
		default:
			buf.WriteString(fmt.Sprintf("  %s: %s (%s)\n", m.id, m.selected.Version(), m.selected.reason))
		}
	}
	if rejected := g.RejectedComponents(); len(rejected) > 0 {
		buf.WriteString("\nRejected:\n")
		for _, c := range rejected {
			buf.WriteString(fmt.Sprintf("  %s: %s\n", c, c.rejection))
		}
	}
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, n *NodeState, prefix string, isLast bool, visited map[*NodeState]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if prefix == "" && n.root {
		buf.WriteString(n.String())
	} else {
		buf.WriteString(prefix + connector + n.String())
	}

	if !n.IsSelected() {
		if target := n.component.module.selected; target != nil && target != n.component {
			buf.WriteString(" -> " + target.String())
		} else {
			buf.WriteString(" (evicted)")
		}
		buf.WriteString("\n")
		return
	}
	if visited[n] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[n] = true
	defer func() { visited[n] = false }()

	deps := n.Dependencies()
	for i, dep := range deps {
		childPrefix := prefix
		if !(prefix == "" && n.root) {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		}
		g.printTree(buf, dep, childPrefix, i == len(deps)-1, visited)
	}
}
