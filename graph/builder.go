package graph

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// DefaultStatus is the metadata status of components added without one.
const DefaultStatus = "release"

// Builder constructs a Graph from "group:name:version" coordinates. Errors
// are accumulated and reported by Build.
type Builder struct {
	g    *Graph
	errs []error
}

// NewBuilder creates a new graph builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{g: New(opts...)}
}

// Root declares the root component and returns its node.
func (b *Builder) Root(coordinates, variant string) *NodeState {
	c := b.Component(coordinates, DefaultStatus)
	if c == nil {
		return nil
	}
	return b.g.SetRoot(c, variant)
}

// Component declares a published component.
func (b *Builder) Component(coordinates, status string) *ComponentState {
	id, err := ident.ParseModuleVersionID(coordinates)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	if status == "" {
		status = DefaultStatus
	}
	return b.g.AddComponent(ident.ModuleComponentID(id), status)
}

// Project declares a component built by the project at path.
func (b *Builder) Project(path, coordinates string) *ComponentState {
	id, err := ident.ParseModuleVersionID(coordinates)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	return b.g.AddComponent(ident.ProjectComponentID(path, id), DefaultStatus)
}

// Node declares variant of the component at coordinates with explicit
// capabilities in "group:name[:version]" notation.
func (b *Builder) Node(coordinates, variant string, capabilities ...string) *NodeState {
	c := b.lookup(coordinates)
	if c == nil {
		return nil
	}
	caps := make([]ident.Capability, 0, len(capabilities))
	for _, s := range capabilities {
		capability, err := ident.ParseCapability(s)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("node %s(%s): %w", coordinates, variant, err))
			continue
		}
		caps = append(caps, capability)
	}
	return c.AddNode(variant, caps...)
}

// Edge declares a dependency between two existing nodes.
func (b *Builder) Edge(from, fromVariant, to, toVariant string) {
	source := b.node(from, fromVariant)
	target := b.node(to, toVariant)
	if source == nil || target == nil {
		return
	}
	b.g.Connect(source, target)
}

func (b *Builder) node(coordinates, variant string) *NodeState {
	c := b.lookup(coordinates)
	if c == nil {
		return nil
	}
	n := c.Node(variant)
	if n == nil {
		b.errs = append(b.errs, fmt.Errorf("unknown node %s(%s)", coordinates, variant))
	}
	return n
}

func (b *Builder) lookup(coordinates string) *ComponentState {
	id, err := ident.ParseModuleVersionID(coordinates)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	m := b.g.Lookup(id.Module)
	if m == nil || m.Version(id.Version) == nil {
		b.errs = append(b.errs, fmt.Errorf("unknown component %s", coordinates))
		return nil
	}
	return m.Version(id.Version)
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph { return b.g }

// Build returns the graph, or the accumulated errors.
func (b *Builder) Build() (*Graph, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if b.g.root == nil {
		return nil, errors.New("graph has no root")
	}
	return b.g, nil
}
