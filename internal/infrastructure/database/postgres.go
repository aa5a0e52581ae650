package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	"github.com/pressly/goose/v3"
)

// PostgresMigrationsFS holds goose-format migrations for PostgreSQL.
// It is populated by the migrations package.
var PostgresMigrationsFS fs.FS

// PostgresMigrationsDir is the directory within PostgresMigrationsFS.
var PostgresMigrationsDir = "postgres"

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// openPostgres connects through the pgx stdlib driver.
func openPostgres(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("opening database: postgres dsn is empty")
	}

	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	db := &DB{
		DB:      sqlDB,
		dialect: DialectPostgres,
	}

	if err := db.ping(); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return db, nil
}

// migratePostgres applies goose migrations from PostgresMigrationsFS.
func (db *DB) migratePostgres(ctx context.Context) error {
	if PostgresMigrationsFS == nil {
		return nil
	}

	goose.SetBaseFS(PostgresMigrationsFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db.DB, PostgresMigrationsDir); err != nil {
		return fmt.Errorf("applying postgres migrations: %w", err)
	}
	return nil
}
