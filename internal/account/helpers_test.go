package account

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
	_ "github.com/nerrad567/projecthub/migrations"
)

// testDB creates a temporary SQLite database with the real migrations applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "account-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) actions() []events.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func testHasher() auth.Hasher {
	return auth.NewArgon2Hasher(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1})
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := NewService(NewRepository(testDB(t)), testHasher(), rec)
	svc.now = steppingClock()
	return svc, rec
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		EmailAddress: email,
		SecretKey:    "s3cret-key",
		GivenName:    "Test",
		FamilyName:   "User",
	}
}

func mustCreate(t *testing.T, svc *Service, in RegisterInput) *Account {
	t.Helper()
	a, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", in.EmailAddress, err)
	}
	return a
}

func ptr[T any](v T) *T { return &v }
