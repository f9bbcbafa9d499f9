package excludes

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/internal/pset"
)

// Kind identifies the variant of a Spec.
type Kind int

const (
	KindNothing Kind = iota
	KindEverything
	KindGroup
	KindModule
	KindModuleID
	KindGroupSet
	KindModuleSet
	KindModuleIDSet
	KindAnyOf
	KindAllOf
)

var kindNames = [...]string{
	KindNothing:     "nothing",
	KindEverything:  "everything",
	KindGroup:       "group",
	KindModule:      "module",
	KindModuleID:    "moduleId",
	KindGroupSet:    "groups",
	KindModuleSet:   "modules",
	KindModuleIDSet: "moduleIds",
	KindAnyOf:       "anyOf",
	KindAllOf:       "allOf",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Spec is an immutable exclude rule. Specs are compared by value: two specs
// are equal when their canonical keys are equal.
//
// Specs must be created through a Factory so that decorators can intercept
// construction.
type Spec interface {
	// Kind returns the variant of this spec.
	Kind() Kind
	// Excludes reports whether the module is excluded by this rule.
	Excludes(id ident.ModuleID) bool
	// Key returns the canonical encoding of the spec.
	Key() string
	// Hash returns the xxhash of Key.
	Hash() uint64
	// Equal reports value equality.
	Equal(other Spec) bool
	// Depth returns the nesting depth; atoms have depth 1.
	Depth() int
	String() string

	sealed()
}

// header holds the fields shared by every variant. Key and hash are computed
// once at construction.
type header struct {
	key  string
	hash uint64
}

func newHeader(key string) header {
	return header{key: key, hash: xxhash.Sum64String(key)}
}

func (h *header) Key() string    { return h.key }
func (h *header) Hash() uint64   { return h.hash }
func (h *header) String() string { return h.key }
func (h *header) sealed()        {}

func (h *header) equal(other Spec) bool {
	if other == nil {
		return false
	}
	return h.hash == other.Hash() && h.key == other.Key()
}

// ExcludeNothing excludes no module.
type ExcludeNothing struct{ header }

func (s *ExcludeNothing) Kind() Kind                  { return KindNothing }
func (s *ExcludeNothing) Excludes(ident.ModuleID) bool { return false }
func (s *ExcludeNothing) Equal(other Spec) bool       { return s.equal(other) }
func (s *ExcludeNothing) Depth() int                  { return 1 }

// ExcludeEverything excludes every module.
type ExcludeEverything struct{ header }

func (s *ExcludeEverything) Kind() Kind                  { return KindEverything }
func (s *ExcludeEverything) Excludes(ident.ModuleID) bool { return true }
func (s *ExcludeEverything) Equal(other Spec) bool       { return s.equal(other) }
func (s *ExcludeEverything) Depth() int                  { return 1 }

var (
	nothing    = &ExcludeNothing{header: newHeader("nothing")}
	everything = &ExcludeEverything{header: newHeader("everything")}
)

// GroupExclude excludes every module of a group.
type GroupExclude struct {
	header
	group string
}

func newGroupExclude(group string) *GroupExclude {
	return &GroupExclude{header: newHeader("group(" + escapeName(group) + ")"), group: group}
}

func (s *GroupExclude) Kind() Kind { return KindGroup }

// Group returns the excluded group.
func (s *GroupExclude) Group() string                  { return s.group }
func (s *GroupExclude) Excludes(id ident.ModuleID) bool { return id.Group == s.group }
func (s *GroupExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *GroupExclude) Depth() int                     { return 1 }

// ModuleExclude excludes every module with a given name, in any group.
type ModuleExclude struct {
	header
	module string
}

func newModuleExclude(module string) *ModuleExclude {
	return &ModuleExclude{header: newHeader("module(" + escapeName(module) + ")"), module: module}
}

func (s *ModuleExclude) Kind() Kind { return KindModule }

// Module returns the excluded module name.
func (s *ModuleExclude) Module() string                 { return s.module }
func (s *ModuleExclude) Excludes(id ident.ModuleID) bool { return id.Name == s.module }
func (s *ModuleExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *ModuleExclude) Depth() int                     { return 1 }

// ModuleIDExclude excludes exactly one module.
type ModuleIDExclude struct {
	header
	id ident.ModuleID
}

func newModuleIDExclude(id ident.ModuleID) *ModuleIDExclude {
	return &ModuleIDExclude{header: newHeader("moduleId(" + moduleIDKey(id) + ")"), id: id}
}

func (s *ModuleIDExclude) Kind() Kind { return KindModuleID }

// ModuleID returns the excluded module.
func (s *ModuleIDExclude) ModuleID() ident.ModuleID       { return s.id }
func (s *ModuleIDExclude) Excludes(id ident.ModuleID) bool { return id == s.id }
func (s *ModuleIDExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *ModuleIDExclude) Depth() int                     { return 1 }

// GroupSetExclude excludes every module of any of its groups.
type GroupSetExclude struct {
	header
	groups pset.Set[string]
}

func newGroupSetExclude(groups pset.Set[string]) *GroupSetExclude {
	return &GroupSetExclude{header: newHeader("groups{" + groups.Key() + "}"), groups: groups}
}

func (s *GroupSetExclude) Kind() Kind { return KindGroupSet }

// Groups returns the excluded groups in sorted order.
func (s *GroupSetExclude) Groups() []string                 { return s.groups.Items() }
func (s *GroupSetExclude) Excludes(id ident.ModuleID) bool { return s.groups.Contains(id.Group) }
func (s *GroupSetExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *GroupSetExclude) Depth() int                     { return 1 }

// ModuleSetExclude excludes every module whose name is in the set.
type ModuleSetExclude struct {
	header
	modules pset.Set[string]
}

func newModuleSetExclude(modules pset.Set[string]) *ModuleSetExclude {
	return &ModuleSetExclude{header: newHeader("modules{" + modules.Key() + "}"), modules: modules}
}

func (s *ModuleSetExclude) Kind() Kind { return KindModuleSet }

// Modules returns the excluded module names in sorted order.
func (s *ModuleSetExclude) Modules() []string                { return s.modules.Items() }
func (s *ModuleSetExclude) Excludes(id ident.ModuleID) bool { return s.modules.Contains(id.Name) }
func (s *ModuleSetExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *ModuleSetExclude) Depth() int                     { return 1 }

// ModuleIDSetExclude excludes every module in the set.
type ModuleIDSetExclude struct {
	header
	ids pset.Set[ident.ModuleID]
}

func newModuleIDSetExclude(ids pset.Set[ident.ModuleID]) *ModuleIDSetExclude {
	return &ModuleIDSetExclude{header: newHeader("moduleIds{" + ids.Key() + "}"), ids: ids}
}

func (s *ModuleIDSetExclude) Kind() Kind { return KindModuleIDSet }

// ModuleIDs returns the excluded modules ordered by "group:name".
func (s *ModuleIDSetExclude) ModuleIDs() []ident.ModuleID     { return s.ids.Items() }
func (s *ModuleIDSetExclude) Excludes(id ident.ModuleID) bool { return s.ids.Contains(id) }
func (s *ModuleIDSetExclude) Equal(other Spec) bool          { return s.equal(other) }
func (s *ModuleIDSetExclude) Depth() int                     { return 1 }

// AnyOf excludes a module if any of its components does.
type AnyOf struct {
	header
	components pset.Set[Spec]
	depth      int
}

func (s *AnyOf) Kind() Kind { return KindAnyOf }

// Components returns the operands of the union in canonical order.
func (s *AnyOf) Components() []Spec { return s.components.Items() }

// Contains reports whether spec is one of the direct components.
func (s *AnyOf) Contains(spec Spec) bool { return s.components.Contains(spec) }

func (s *AnyOf) Excludes(id ident.ModuleID) bool {
	return s.components.Any(func(c Spec) bool { return c.Excludes(id) })
}
func (s *AnyOf) Equal(other Spec) bool { return s.equal(other) }
func (s *AnyOf) Depth() int            { return s.depth }

// AllOf excludes a module only if all of its components do.
type AllOf struct {
	header
	components pset.Set[Spec]
	depth      int
}

func (s *AllOf) Kind() Kind { return KindAllOf }

// Components returns the operands of the intersection in canonical order.
func (s *AllOf) Components() []Spec { return s.components.Items() }

// Contains reports whether spec is one of the direct components.
func (s *AllOf) Contains(spec Spec) bool { return s.components.Contains(spec) }

func (s *AllOf) Excludes(id ident.ModuleID) bool {
	if s.components.IsEmpty() {
		return false
	}
	return !s.components.Any(func(c Spec) bool { return !c.Excludes(id) })
}
func (s *AllOf) Equal(other Spec) bool { return s.equal(other) }
func (s *AllOf) Depth() int            { return s.depth }

func specKey(s Spec) string { return s.Key() }

func moduleIDKey(id ident.ModuleID) string {
	return escapeName(id.Group) + ":" + escapeName(id.Name)
}

// nameEscaper escapes the delimiters of canonical keys inside group and module
// names. Commas are left to pset.Key, which escapes them in set encodings.
var nameEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`)

func escapeName(name string) string { return nameEscaper.Replace(name) }

// nameSet creates a set of group or module names keyed by their escaped form.
func nameSet(names ...string) pset.Set[string] {
	return pset.New(escapeName, names...)
}

func specSet(specs ...Spec) pset.Set[Spec] {
	return pset.New(specKey, specs...)
}

func moduleIDSet(ids ...ident.ModuleID) pset.Set[ident.ModuleID] {
	return pset.New(moduleIDKey, ids...)
}

func compositeKey(kind Kind, components pset.Set[Spec]) string {
	var b strings.Builder
	b.WriteString(kind.String())
	b.WriteByte('{')
	for i, c := range components.Items() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(c.Key())
	}
	b.WriteByte('}')
	return b.String()
}

func maxDepth(components pset.Set[Spec]) int {
	depth := 0
	components.Each(func(c Spec) bool {
		depth = max(depth, c.Depth())
		return true
	})
	return depth
}

// components returns the direct operands of a composite spec, or nil.
func components(s Spec) (pset.Set[Spec], bool) {
	switch v := s.(type) {
	case *AnyOf:
		return v.components, true
	case *AllOf:
		return v.components, true
	}
	return pset.Set[Spec]{}, false
}

// ExcludesSameModulesAs reports whether a and b describe the same exclusion
// structurally: same variant, same members, with composite members compared
// recursively irrespective of order.
func ExcludesSameModulesAs(a, b Spec) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	left, ok := components(a)
	if !ok {
		return a.Equal(b)
	}
	right, _ := components(b)
	if left.Len() != right.Len() {
		return false
	}
	for _, l := range left.Items() {
		if !right.Any(func(r Spec) bool { return ExcludesSameModulesAs(l, r) }) {
			return false
		}
	}
	return true
}
