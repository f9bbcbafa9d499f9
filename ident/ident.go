// Package ident provides the coordinate value types shared by the exclude
// algebra and the conflict resolution engine.
//
// All types in this package are small immutable values that can be compared
// with == and used as map keys.
//
// # Types
//
//   - [ModuleID]: a (group, name) pair identifying a dependency without a version
//   - [ModuleVersionID]: a module plus a version
//   - [ComponentID]: the identity of a component in the graph, either a published
//     module version or a project of the current build
//   - [Capability]: a (group, name, version) triple a component variant provides
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNotation is returned when a coordinate string cannot be parsed.
var ErrInvalidNotation = errors.New("invalid coordinate notation")

// ModuleID identifies a module by group and name, independent of version.
type ModuleID struct {
	Group string
	Name  string
}

// NewModuleID creates a ModuleID, rejecting empty names.
// An empty group is allowed: some repositories publish modules without one.
func NewModuleID(group, name string) (ModuleID, error) {
	if name == "" {
		return ModuleID{}, fmt.Errorf("module name cannot be empty (group %q)", group)
	}
	if strings.ContainsRune(group, ':') || strings.ContainsRune(name, ':') {
		return ModuleID{}, fmt.Errorf("%w: module id %s:%s must not contain ':'", ErrInvalidNotation, group, name)
	}
	return ModuleID{Group: group, Name: name}, nil
}

// MustModuleID creates a ModuleID or panics. Use only for constants/tests.
func MustModuleID(group, name string) ModuleID {
	id, err := NewModuleID(group, name)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseModuleID parses "group:name".
func ParseModuleID(s string) (ModuleID, error) {
	group, name, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(name, ":") {
		return ModuleID{}, fmt.Errorf("%w: %q, expected group:name", ErrInvalidNotation, s)
	}
	return NewModuleID(group, name)
}

// String returns "group:name".
func (m ModuleID) String() string {
	return m.Group + ":" + m.Name
}

// IsEmpty returns true if this is a zero-value ModuleID.
func (m ModuleID) IsEmpty() bool {
	return m.Group == "" && m.Name == ""
}

// Version returns the ModuleVersionID of this module at the given version.
func (m ModuleID) Version(v string) ModuleVersionID {
	return ModuleVersionID{Module: m, Version: v}
}

// ModuleVersionID identifies one version of a module.
type ModuleVersionID struct {
	Module  ModuleID
	Version string
}

// ParseModuleVersionID parses "group:name:version".
func ParseModuleVersionID(s string) (ModuleVersionID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return ModuleVersionID{}, fmt.Errorf("%w: %q, expected group:name:version", ErrInvalidNotation, s)
	}
	m, err := NewModuleID(parts[0], parts[1])
	if err != nil {
		return ModuleVersionID{}, err
	}
	return m.Version(parts[2]), nil
}

// String returns "group:name:version".
func (m ModuleVersionID) String() string {
	return m.Module.String() + ":" + m.Version
}

// ComponentKind distinguishes published modules from projects of the build.
type ComponentKind int

const (
	// ModuleComponent is a component published to a repository.
	ModuleComponent ComponentKind = iota
	// ProjectComponent is a component produced by a project of the current build.
	ProjectComponent
)

// ComponentID identifies a component in the dependency graph.
type ComponentID struct {
	Kind ComponentKind
	ID   ModuleVersionID

	// ProjectPath is set for project components (e.g. ":lib").
	ProjectPath string
}

// ModuleComponentID returns the identifier of a published module version.
func ModuleComponentID(id ModuleVersionID) ComponentID {
	return ComponentID{Kind: ModuleComponent, ID: id}
}

// ProjectComponentID returns the identifier of a project that publishes as id.
func ProjectComponentID(path string, id ModuleVersionID) ComponentID {
	return ComponentID{Kind: ProjectComponent, ID: id, ProjectPath: path}
}

// IsProject reports whether this component is a project of the current build.
func (c ComponentID) IsProject() bool {
	return c.Kind == ProjectComponent
}

// DisplayName returns a human readable name, used in diagnostics.
func (c ComponentID) DisplayName() string {
	if c.IsProject() {
		return "project " + c.ProjectPath
	}
	return c.ID.String()
}

// String implements fmt.Stringer.
func (c ComponentID) String() string {
	return c.DisplayName()
}

// Capability is a (group, name, version) triple provided by a component variant.
// Two capabilities with the same group and name are mutually exclusive.
type Capability struct {
	Group   string
	Name    string
	Version string
}

// NewCapability creates a Capability, rejecting empty groups or names.
func NewCapability(group, name, version string) (Capability, error) {
	if group == "" || name == "" {
		return Capability{}, fmt.Errorf("capability group and name cannot be empty (got %q:%q)", group, name)
	}
	return Capability{Group: group, Name: name, Version: version}, nil
}

// MustCapability creates a Capability or panics. Use only for constants/tests.
func MustCapability(group, name, version string) Capability {
	c, err := NewCapability(group, name, version)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCapability parses "group:name" or "group:name:version".
func ParseCapability(s string) (Capability, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		return NewCapability(parts[0], parts[1], "")
	case 3:
		return NewCapability(parts[0], parts[1], parts[2])
	default:
		return Capability{}, fmt.Errorf("%w: %q, expected group:name[:version]", ErrInvalidNotation, s)
	}
}

// ID returns the versionless capability id "group:name".
func (c Capability) ID() string {
	return c.Group + ":" + c.Name
}

// Module returns the module whose coordinates match this capability.
func (c Capability) Module() ModuleID {
	return ModuleID{Group: c.Group, Name: c.Name}
}

// String returns "group:name:version", or "group:name" without a version.
func (c Capability) String() string {
	if c.Version == "" {
		return c.ID()
	}
	return c.ID() + ":" + c.Version
}

// ImplicitCapability returns the capability every component provides by
// virtue of its own coordinates.
func ImplicitCapability(id ModuleVersionID) Capability {
	return Capability{Group: id.Module.Group, Name: id.Module.Name, Version: id.Version}
}
