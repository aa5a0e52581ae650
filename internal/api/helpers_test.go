package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
	"github.com/nerrad567/projecthub/internal/identity"
	"github.com/nerrad567/projecthub/internal/infrastructure/config"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
	"github.com/nerrad567/projecthub/internal/infrastructure/logging"
	"github.com/nerrad567/projecthub/internal/project"
	_ "github.com/nerrad567/projecthub/migrations"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// testEnv is a fully wired server backed by a temporary SQLite database.
type testEnv struct {
	srv      *Server
	router   http.Handler
	db       *database.DB
	accounts *account.Service
	hub      *Hub
}

type envOption func(*Deps)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	log := logging.Discard()
	wsCfg := config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
	hub := NewHub(wsCfg, log)
	hubCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	issuer, err := auth.NewTokenIssuer(testJWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	hasher := auth.NewArgon2Hasher(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1})

	accounts := account.NewService(account.NewRepository(db), hasher, hub)
	projects := project.NewService(project.NewRepository(db), events.Multi{hub})

	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS:       wsCfg,
		Logger:   log,
		DB:       db,
		Identity: identity.NewService(accounts, issuer),
		Accounts: accounts,
		Projects: projects,
		Hub:      hub,
		Version:  "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testEnv{srv: srv, router: srv.buildRouter(), db: db, accounts: accounts, hub: hub}
}

// do sends a request through the router. A non-nil body is JSON-encoded
// unless it is already a string.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signUp registers a standard account over HTTP and returns its token and id.
func (e *testEnv) signUp(t *testing.T, email string) (token, id string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", map[string]string{
		"emailAddress": email,
		"secretKey":    "secret-key",
		"givenName":    "Test",
		"familyName":   "User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("sign-up %s status = %d, body = %s", email, w.Code, w.Body)
	}
	var s identity.Session
	decode(t, w, &s)
	return s.AuthToken, s.AccountInfo.ID
}

// seedElevated creates an elevated account directly and signs it in.
func (e *testEnv) seedElevated(t *testing.T, email string) (token, id string) {
	t.Helper()
	_, err := e.accounts.Create(context.Background(), account.RegisterInput{
		EmailAddress:    email,
		SecretKey:       "secret-key",
		GivenName:       "Elevated",
		FamilyName:      "User",
		PermissionLevel: auth.LevelElevated,
	})
	if err != nil {
		t.Fatalf("seeding %s: %v", email, err)
	}

	w := e.do(t, http.MethodPost, "/api/v1/identity/sign-in", "", map[string]string{
		"emailAddress": email,
		"secretKey":    "secret-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in %s status = %d, body = %s", email, w.Code, w.Body)
	}
	var s identity.Session
	decode(t, w, &s)
	return s.AuthToken, s.AccountInfo.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

// expectError asserts the uniform error body.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) Error {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body)
	}
	var e Error
	decode(t, w, &e)
	if e.Success || e.Status != status || e.Code != code {
		t.Errorf("error body = %+v, want status %d code %s", e, status, code)
	}
	if e.Path == "" || e.Method == "" {
		t.Errorf("error body missing path/method: %+v", e)
	}
	if _, err := time.Parse(time.RFC3339, e.OccurredAt); err != nil {
		t.Errorf("occurredAt %q is not RFC 3339", e.OccurredAt)
	}
	return e
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
