// Package excludes implements the exclude rule algebra used while building a
// dependency graph.
//
// A [Spec] describes a set of modules to exclude: nothing, everything, a
// group, a module name, a module id, a set of any of those, or a union
// ([AnyOf]) or intersection ([AllOf]) of other specs. Specs are immutable
// values with a canonical key, so two specs are equal when their keys are
// equal and they can be used as map keys through [Spec.Key].
//
// # Factories
//
// Specs are only built through a [Factory]. Decorators implement the same
// interface and wrap the next layer:
//
//   - [Optimizing] short-circuits trivial operations
//   - [Caching] memoizes unions and intersections, order-insensitively
//   - [Normalizing] simplifies expressions with the union and intersection
//     rule tables
//   - [Logging] traces operations, enabled with RESOLVEENGINE_TRACE_EXCLUDES
//   - [BaseFactory] constructs the variants
//
// [NewChain] assembles them in that order.
//
// # Overflow
//
// The base factory refuses to build composites nested deeper than
// [DefaultMaxDepth] and panics with an [*OverflowError]. Callers at the
// resolution boundary use [Recover] to turn it into an error.
//
// # Example
//
//	f := excludes.NewChain()
//	spec := f.AnyOf(f.Group("org.slf4j"), f.ModuleID(ident.MustModuleID("log4j", "log4j")))
//	spec.Excludes(ident.MustModuleID("org.slf4j", "slf4j-api")) // true
package excludes
