package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
)

// Repository defines the interface for project persistence.
type Repository interface {
	// FindByID returns the project with Owner populated.
	FindByID(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, p *Project) error
	Save(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
	// ListAll returns every project with Owner populated, newest first.
	ListAll(ctx context.Context) ([]Project, error)
	// ListByOwner returns one account's projects, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
}

// SQLRepository implements Repository on SQLite or PostgreSQL.
type SQLRepository struct {
	db *database.DB
}

// NewRepository creates a SQL-backed project repository.
func NewRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const (
	projectColumns = `p.id, p.project_name, p.project_details, p.progress, p.urgency,
	p.target_date, p.owner_id, p.initiated_at, p.last_updated_at`
	ownerColumns = `a.id, a.email_address, a.given_name, a.family_name, a.permission_level`
	withOwner    = "SELECT " + projectColumns + ", " + ownerColumns +
		" FROM projects p JOIN accounts a ON a.id = p.owner_id"
	newestFirst = " ORDER BY p.initiated_at DESC, p.id DESC"
)

// FindByID retrieves a project and its owner's public info.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(withOwner+" WHERE p.id = ?"), id)
	return scanProject(row, true)
}

// Create inserts a new project.
func (r *SQLRepository) Create(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO projects (id, project_name, project_details, progress, urgency,
			target_date, owner_id, initiated_at, last_updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, nullString(p.Details), string(p.Progress), string(p.Urgency),
		nullDate(p.TargetDate), p.OwnerID, p.InitiatedAt, p.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// Save upserts a project by ID. Ownership and initiated_at are never rewritten.
func (r *SQLRepository) Save(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO projects (id, project_name, project_details, progress, urgency,
			target_date, owner_id, initiated_at, last_updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			project_name = excluded.project_name,
			project_details = excluded.project_details,
			progress = excluded.progress,
			urgency = excluded.urgency,
			target_date = excluded.target_date,
			last_updated_at = excluded.last_updated_at`),
		p.ID, p.Name, nullString(p.Details), string(p.Progress), string(p.Urgency),
		nullDate(p.TargetDate), p.OwnerID, p.InitiatedAt, p.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// Delete removes a project.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// ListAll returns every project with its owner, newest first.
func (r *SQLRepository) ListAll(ctx context.Context) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, withOwner+newestFirst)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return collect(rows, true)
}

// ListByOwner returns the projects owned by ownerID, newest first.
func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT "+projectColumns+" FROM projects p WHERE p.owner_id = ?"+newestFirst), ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return collect(rows, false)
}

func collect(rows *sql.Rows, joined bool) ([]Project, error) {
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows, joined)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner, joined bool) (*Project, error) {
	var p Project
	var details sql.NullString
	var target sql.Null[Date]
	var progress, urgency string

	dest := []any{&p.ID, &p.Name, &details, &progress, &urgency,
		&target, &p.OwnerID, &p.InitiatedAt, &p.LastUpdatedAt}

	var owner account.Info
	var level string
	if joined {
		dest = append(dest, &owner.ID, &owner.EmailAddress, &owner.GivenName, &owner.FamilyName, &level)
	}

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Details = details.String
	p.Progress = Progress(progress)
	p.Urgency = Urgency(urgency)
	if target.Valid {
		d := target.V
		p.TargetDate = &d
	}
	p.InitiatedAt = p.InitiatedAt.UTC()
	p.LastUpdatedAt = p.LastUpdatedAt.UTC()
	if joined {
		owner.PermissionLevel = auth.PermissionLevel(level)
		p.Owner = &owner
	}
	return &p, nil
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullDate converts a nil date to NULL.
func nullDate(d *Date) any {
	if d == nil {
		return nil
	}
	return *d
}
