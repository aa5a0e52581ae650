package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
)

func newMockRepo(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewRepository(database.Wrap(sqlDB, database.DialectPostgres)), mock
}

var mockColumns = []string{"id", "email_address", "secret_hash", "given_name", "family_name",
	"permission_level", "account_active", "registered_at", "modified_at"}

func TestPostgres_FindByIDUsesNumberedPlaceholders(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(mockColumns).
			AddRow("acc-1", "pg@example.com", "$2a$10$x", "Pg", "User", "elevated", true, now, now))

	a, err := repo.FindByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if a.PermissionLevel != auth.LevelElevated || !a.AccountActive || a.EmailAddress != "pg@example.com" {
		t.Errorf("FindByID() = %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_FindByEmailNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email_address = $1")).
		WithArgs("none@example.com").
		WillReturnRows(sqlmock.NewRows(mockColumns))

	if _, err := repo.FindByEmail(context.Background(), "none@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrAccountNotFound", err)
	}
}

func TestPostgres_CreateUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("acc-1", "dup@example.com", "digest", "A", "B", "standard", true, now, now).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_address_key"})

	err := repo.Create(context.Background(), &Account{
		ID: "acc-1", EmailAddress: "dup@example.com", SecretHash: "digest",
		GivenName: "A", FamilyName: "B", PermissionLevel: auth.LevelStandard,
		AccountActive: true, RegisteredAt: now, ModifiedAt: now,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create() error = %v, want ErrEmailExists", err)
	}
}

func TestPostgres_SaveUpsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &Account{
		ID: "acc-1", EmailAddress: "a@example.com", PermissionLevel: auth.LevelStandard,
		RegisteredAt: now, ModifiedAt: now,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_DeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "acc-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Delete() error = %v, want ErrAccountNotFound", err)
	}
}

func TestPostgres_QueryErrorIsWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts ORDER BY registered_at DESC")).WillReturnError(boom)

	_, err := repo.ListAll(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("ListAll() error = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, ErrAccountNotFound) {
		t.Error("driver errors must not look like not-found")
	}
}
