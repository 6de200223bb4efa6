// Package repos hosts the catalogue query commands: list, status, info,
// freshness, summary, forget, and permission. Each command is assembled by a
// builder whose providers supply the opened store, output format, and
// permission gates at execution time.
package repos
