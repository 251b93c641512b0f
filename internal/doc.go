// Package internal documents the evently server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic and domain models (users, events)
// - storage: database access and repositories (pgx + Postgres)
// - scheduler: in-process reminder and feedback triggers
// - auth, config, email, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
