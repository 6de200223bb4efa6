// Package catalog defines the domain model for catalogued git repositories.
//
// It provides the Entry type describing a repository and its extracted
// vitals, the classification vocabulary (State, Category, Ownership,
// Intention, Freshness), and the composable Filter used to narrow catalog
// queries both in SQL and in memory.
package catalog
