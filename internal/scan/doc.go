// Package scan discovers git repositories under configured roots and keeps
// the catalogue synchronized with the filesystem.
//
// The walker prunes excluded directories, stays on the root's device unless
// crossing mounts is allowed, and never descends into the git metadata of a
// discovered repository. Discovery feeds an extraction pipeline that collects
// vitals, classifies entries, and upserts them into the index while a file
// lock guards against concurrent scans.
package scan
