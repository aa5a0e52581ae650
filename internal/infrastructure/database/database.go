package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps a sql.DB connection with ProjectHub-specific functionality.
// It provides migration support, health checks, placeholder rebinding
// and proper lifecycle management.
type DB struct {
	*sql.DB
	path    string
	dialect Dialect
}

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// Driver selects the backend: "sqlite" (default) or "postgres".
	Driver string

	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int

	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxOpenConns caps the PostgreSQL pool size.
	MaxOpenConns int
}

// Open creates a new database connection for the configured driver.
func Open(cfg Config) (*DB, error) {
	switch Dialect(cfg.Driver) {
	case DialectPostgres:
		return openPostgres(cfg)
	case DialectSQLite, "":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Wrap adopts an already-open *sql.DB with the given dialect. Callers keep
// ownership of the pool's configuration; migrations are not run.
func Wrap(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, dialect: dialect}
}

// openSQLite opens (creating if needed) the SQLite database file.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the database file with foreign keys enforced
//  3. Configures WAL mode and busy timeout
//  4. Verifies the connection with a ping
//  5. Restricts file permissions to 0600
func openSQLite(cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	db := &DB{
		DB:      sqlDB,
		path:    cfg.Path,
		dialect: DialectSQLite,
	}

	if err := db.ping(); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may be created lazily on first write

	return db, nil
}

// ping verifies connectivity within connectionTimeout.
func (db *DB) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("verifying database connection: %w", err)
	}
	return nil
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the SQLite database file.
// It is empty for PostgreSQL connections.
func (db *DB) Path() string {
	return db.path
}

// Dialect reports which SQL flavour this connection speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Rebind converts '?' placeholders to the connection's native form.
// PostgreSQL uses $1, $2, ...; SQLite accepts '?' unchanged.
// Queries must not contain literal question marks.
func (db *DB) Rebind(query string) string {
	return Rebind(db.dialect, query)
}

// Rebind converts '?' placeholders for the given dialect.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// HealthCheck verifies the database is accessible and functioning.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns database connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// BeginTx starts a new transaction with the given options.
//
// Example:
//
//	tx, err := db.BeginTx(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback() // No-op if committed
//
//	// ... execute queries on tx ...
//
//	return tx.Commit()
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
