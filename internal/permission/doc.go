// Package permission gates catalogue operations by difficulty level.
//
// Levels form a total order (Readonly < Fetch < Commit < Force < Unsafe) and
// every operation class names the minimum level it requires. A Gate resolves
// the effective level for a repository path from ordered path-glob overrides
// with a configured default, and refuses with a typed DeniedError rather than
// adjusting the request.
package permission
