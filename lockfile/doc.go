// Package lockfile records the outcome of a resolution so that later runs
// can be compared against it.
//
// A lock file captures, per module, the version that won its conflicts, the
// modules replaced by another module, and the components rejected by
// capability conflicts. It optionally pins the hash of the scenario it was
// produced from.
//
// # Usage
//
// Write a lock file after resolving a graph:
//
//	lf := lockfile.FromGraph(g)
//	lf.ScenarioHash = lockfile.HashContent(content)
//	if err := lf.WriteFile("resolution.lock"); err != nil {
//	    log.Fatal(err)
//	}
//
// Compare a new resolution with the recorded one:
//
//	old, err := lockfile.ReadFile("resolution.lock")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	diff := lockfile.Compare(old, lockfile.FromGraph(g), version.Compare)
//	fmt.Println(diff.Summary())
//
// # Format
//
// Lock files are JSON with sorted keys, so that identical resolutions always
// produce identical bytes.
package lockfile
