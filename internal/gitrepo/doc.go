// Package gitrepo contains helpers for interpreting git remote URLs.
//
// It parses ssh, scp-like, and http(s) remote forms into a structured
// RemoteURL and derives RemoteInfo (hosting platform, organization, and
// repository name) consumed by classification rules and catalog filters.
package gitrepo
