// Package index persists the repository catalogue in SQLite.
//
// A Store owns a single pooled connection in WAL mode: SQLite allows one
// writer at a time, and one connection keeps pragma state consistent while
// avoiding SQLITE_BUSY contention between goroutines. Schema upgrades run
// during Open, gated by a recorded schema version. Every entry write replaces
// the remotes and tags collections wholesale inside one transaction.
package index
