// Package mcp serves the catalogue to model-context-protocol clients over
// stdio. Tool responses use a terse bracketed text format designed for
// language-model consumption: a `[state]` tag line, indented detail lines,
// and trailing `→ next:` hints suggesting follow-up tools.
package mcp
