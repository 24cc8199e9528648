// Package sqlite provides a SQLite-backed session store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database path is taken from session.path; an empty path or ":memory:"
// keeps sessions for the lifetime of the process only.
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised by SQLite; file
// databases run in WAL mode so reads do not block on writers.
package sqlite
