// Package vitals reads the observable git state of a repository without
// mutating it.
//
// Collector shells out to git through an executor and assembles a Snapshot:
// remotes, branch counts, working tree cleanliness, upstream divergence, and
// the latest commit timestamp. Bare repositories skip working tree probes.
package vitals
