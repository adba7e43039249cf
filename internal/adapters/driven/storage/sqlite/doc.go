// Package sqlite provides the SQLite-backed result store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The analyses table holds one row per fingerprint with the source identity,
// the serialised scan metadata and analysis record, and a storage timestamp.
// It is indexed by fingerprint, location and subtree.
//
// # Data Location
//
// By default, the database is stored at ~/.repolens/data/analyses.db
//
// # Thread Safety
//
// All operations are thread-safe. Saving the same fingerprint twice is a single
// upsert statement; concurrent writers race and the last write wins.
package sqlite
