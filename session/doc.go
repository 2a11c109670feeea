// Package session persists sign-in records and the revocation blacklist.
//
// A [Manager] composes a [Store] with a [Blacklist]. The default backend is
// Redis for both; the stores/sqlite package provides a SQL-backed [Store]
// for single-binary deployments.
package session
