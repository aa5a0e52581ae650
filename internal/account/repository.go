package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
)

// Repository defines the interface for account persistence.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Save(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]Account, error)
	Count(ctx context.Context) (int, error)
}

// SQLRepository implements Repository on SQLite or PostgreSQL. Queries are
// written with ? placeholders and rebound for the connection's dialect.
type SQLRepository struct {
	db *database.DB
}

// NewRepository creates a SQL-backed account repository.
func NewRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const accountColumns = `id, email_address, secret_hash, given_name, family_name,
	permission_level, account_active, registered_at, modified_at`

// FindByEmail retrieves an account by exact email address.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE email_address = ?"), email)
	return scanAccount(row)
}

// FindByID retrieves an account by its unique ID.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	return scanAccount(row)
}

// Create inserts a new account. A duplicate email returns ErrEmailExists.
func (r *SQLRepository) Create(ctx context.Context, a *Account) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.EmailAddress, a.SecretHash, a.GivenName, a.FamilyName,
		string(a.PermissionLevel), a.AccountActive, a.RegisteredAt, a.ModifiedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// Save upserts an account by ID. registered_at is never rewritten.
func (r *SQLRepository) Save(ctx context.Context, a *Account) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			email_address = excluded.email_address,
			secret_hash = excluded.secret_hash,
			given_name = excluded.given_name,
			family_name = excluded.family_name,
			permission_level = excluded.permission_level,
			account_active = excluded.account_active,
			modified_at = excluded.modified_at`),
		a.ID, a.EmailAddress, a.SecretHash, a.GivenName, a.FamilyName,
		string(a.PermissionLevel), a.AccountActive, a.RegisteredAt, a.ModifiedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Delete removes an account. Owned projects go with it via ON DELETE CASCADE.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM accounts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListAll returns every account, newest first.
func (r *SQLRepository) ListAll(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY registered_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// Count returns the total number of accounts.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*Account, error) {
	var a Account
	var level string

	err := s.Scan(&a.ID, &a.EmailAddress, &a.SecretHash, &a.GivenName, &a.FamilyName,
		&level, &a.AccountActive, &a.RegisteredAt, &a.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.PermissionLevel = auth.PermissionLevel(level)
	a.RegisteredAt = a.RegisteredAt.UTC()
	a.ModifiedAt = a.ModifiedAt.UTC()
	return &a, nil
}
