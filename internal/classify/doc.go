// Package classify derives catalogue metadata from declarative rules.
//
// Configuration rules are compiled once at load time and applied in order:
// each matching rule fills only fields that are still unset (first match per
// field wins, independently per field), appends its tags with case-insensitive
// deduplication, and applies a state override unconditionally. Built-in
// heuristics then claim tool-managed checkouts (plugin managers, cargo,
// emulator libraries) that no rule classified.
package classify
