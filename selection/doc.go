// Package selection describes why a component was selected.
//
// Every component of the dependency graph carries a [Reason]: the ordered,
// de-duplicated list of [Descriptor]s recorded while the graph was built. A
// descriptor pairs a [Cause] (requested, forced, conflict resolution, ...)
// with an optional free-form description, for example
//
//	conflict resolution: between versions 2.0 and 1.0
//
// Conflict handlers append descriptors when they pick a winner or apply a
// module replacement; reports render them to explain the resolved graph
// without re-deriving conflict membership.
package selection
