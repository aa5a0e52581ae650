// Package database provides SQL connectivity for ProjectHub.
//
// Two backends are supported behind one *DB wrapper:
//   - SQLite via mattn/go-sqlite3 (default; single file, WAL mode,
//     foreign keys enforced)
//   - PostgreSQL via the pgx stdlib driver
//
// Repositories write queries with '?' placeholders and pass them through
// Rebind so the same SQL runs on both.
//
// Migrations:
//   - SQLite uses the embedded runner in migrations.go with
//     YYYYMMDD_HHMMSS_name.up.sql / .down.sql pairs
//   - PostgreSQL uses goose with files from PostgresMigrationsFS
package database
