// Package store provides persistent storage for research-manager using SQLite.
//
// # Architecture
//
// The store package defines a single Store interface covering all entities;
// SQLiteStore implements it in one struct. Callers depend on the interface so
// tests can swap implementations, though in practice an in-memory SQLite
// database is cheap enough that even tests use the real thing.
//
// # Data Models
//
// The lab workflow is three tiers, each owned by a user:
//
//   - Synthesis: one catalyst preparation (date, name, memo, amount in grams)
//   - Reaction: one trial run of a synthesized catalyst (date, temperature,
//     catalyst amount, memo), referencing its parent synthesis
//   - Result: the processed outcome of a reaction's measurement upload
//     (average DoDH plus the rendered chart), at most one per reaction
//
// User rows carry only what login needs: a unique username and a bcrypt hash.
//
// # Ownership and Deletion
//
// Every synthesis, reaction, and result carries an owner_id, and list
// operations filter by it; that filter is the only authorization boundary.
// Deletes are by primary key and deliberately do not cascade. Removing a
// synthesis leaves its reactions (and their results) in place: they drop out
// of the joined list view but remain reachable by id. Old trial data staying
// queryable after a catalog cleanup is behavior the lab relies on.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Experiment dates are stored as day-resolution TEXT (2006-01-02); row
// timestamps are RFC3339 UTC TEXT.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrUsernameExists: Username already taken
//   - ErrInvalid: Entity failed field validation (always wrapped with detail)
//
// All methods accept context.Context for cancellation support.
//
// # Migrations
//
// The schema is created on open with CREATE TABLE IF NOT EXISTS; column
// additions for existing databases run as idempotent checks against
// pragma_table_info.
package store
