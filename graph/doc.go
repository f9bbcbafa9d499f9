// Package graph holds the state of a dependency graph while conflicts are
// resolved.
//
// The graph is made of modules ([ModuleState]), the candidate versions of
// each module ([ComponentState]) and the variants of each component
// ([NodeState]) linked by edges. These types implement the collaborator
// interfaces of package conflicts, so the conflict handlers can deselect,
// replace, evict and reject parts of the graph.
//
// # Building a Graph
//
//	b := graph.NewBuilder()
//	root := b.Root("org:app:1.0", "runtime")
//	b.Component("org:lib:1.0", "")
//	b.Node("org:lib:1.0", "runtime")
//	b.Edge("org:app:1.0", "runtime", "org:lib:1.0", "runtime")
//	g, err := b.Build()
//
// The first component added to a module is selected; later versions are
// candidates until a conflict handler decides.
//
// # Querying the Graph
//
//	selected := g.SelectedComponents()
//	path := g.Path(g.Root(), node)
//	explanation, _ := g.Explain(ident.MustModuleID("org", "lib"))
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dotString := g.ToDOT()
//	textString := g.ToText()
package graph
