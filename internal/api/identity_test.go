package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/identity"
)

func TestSignUp_Success(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", map[string]string{
		"emailAddress": "  new@example.com ",
		"secretKey":    "secret-key",
		"givenName":    "New",
		"familyName":   "User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("response leaks secret material: %s", w.Body)
	}

	var s identity.Session
	decode(t, w, &s)
	if s.Outcome != identity.OutcomeRegistered || s.AuthToken == "" {
		t.Errorf("session = %+v", s)
	}
	if s.AccountInfo.EmailAddress != "new@example.com" || s.AccountInfo.PermissionLevel != auth.LevelStandard {
		t.Errorf("accountInfo = %+v", s.AccountInfo)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "dup@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", map[string]string{
		"emailAddress": "dup@example.com",
		"secretKey":    "another-key",
		"givenName":    "Dup",
		"familyName":   "User",
	})
	e := expectError(t, w, http.StatusConflict, ErrCodeConflict)
	if e.Message != "an account with this email already exists" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestSignUp_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"empty email", map[string]string{"emailAddress": "", "secretKey": "secret-key", "givenName": "A", "familyName": "B"},
			"Email address cannot be empty"},
		{"bad email", map[string]string{"emailAddress": "not-an-email", "secretKey": "secret-key", "givenName": "A", "familyName": "B"},
			"A valid email address is required"},
		{"short secret", map[string]string{"emailAddress": "a@example.com", "secretKey": "abc", "givenName": "A", "familyName": "B"},
			"Secret key must contain at least 6 characters"},
		{"missing given name", map[string]string{"emailAddress": "a@example.com", "secretKey": "secret-key", "familyName": "B"},
			"Given name is required"},
		{"long family name", map[string]string{"emailAddress": "a@example.com", "secretKey": "secret-key", "givenName": "A",
			"familyName": strings.Repeat("x", 51)}, "Family name cannot exceed 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", tt.body)
			e := expectError(t, w, http.StatusBadRequest, ErrCodeValidation)
			if e.Message != tt.msg {
				t.Errorf("message = %q, want %q", e.Message, tt.msg)
			}
		})
	}
}

func TestSignUp_RejectsPermissionLevel(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", map[string]string{
		"emailAddress":    "sneaky@example.com",
		"secretKey":       "secret-key",
		"givenName":       "Sneaky",
		"familyName":      "User",
		"permissionLevel": "elevated",
	})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestSignUp_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", `{"emailAddress":`)
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = env.do(t, http.MethodPost, "/api/v1/identity/sign-up", "", `{} {}`)
	e := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	if e.Message != "request body must contain a single JSON object" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestSignIn_Success(t *testing.T) {
	env := newTestEnv(t)
	_, id := env.signUp(t, "login@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/identity/sign-in", "", map[string]string{
		"emailAddress": "login@example.com",
		"secretKey":    "secret-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body)
	}
	var s identity.Session
	decode(t, w, &s)
	if s.Outcome != identity.OutcomeAuthenticated || s.AccountInfo.ID != id || s.AuthToken == "" {
		t.Errorf("session = %+v", s)
	}
}

func TestSignIn_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "known@example.com")
	_, inactiveID := env.signUp(t, "inactive@example.com")
	admin, _ := env.seedElevated(t, "admin@example.com")

	w := env.do(t, http.MethodPatch, "/api/v1/accounts/"+inactiveID, admin, map[string]any{"accountActive": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d (body %s)", w.Code, w.Body)
	}

	cases := map[string]map[string]string{
		"unknown email": {"emailAddress": "ghost@example.com", "secretKey": "secret-key"},
		"wrong secret":  {"emailAddress": "known@example.com", "secretKey": "wrong-key"},
		"inactive":      {"emailAddress": "inactive@example.com", "secretKey": "secret-key"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/identity/sign-in", "", body)
			e := expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
			if e.Message != "invalid credentials" {
				t.Errorf("message = %q, want invalid credentials", e.Message)
			}
		})
	}
}

func TestCurrent(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signUp(t, "me@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/identity/current", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["accountId"] != id || body["emailAddress"] != "me@example.com" || body["accountActive"] != true {
		t.Errorf("body = %v", body)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("current leaks secret material: %s", w.Body)
	}
}

func TestCurrent_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"no header", "", "missing bearer token"},
		{"wrong scheme", "Basic abc", "missing bearer token"},
		{"garbage token", "Bearer not-a-jwt", "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/v1/identity/current")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(env, req)
			e := expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
			if e.Message != tt.msg {
				t.Errorf("message = %q, want %q", e.Message, tt.msg)
			}
		})
	}
}

func TestCurrent_ForeignSigningKey(t *testing.T) {
	env := newTestEnv(t)
	_, id := env.signUp(t, "victim@example.com")

	other, err := auth.NewTokenIssuer(strings.Repeat("k", 40), 0)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	forged, err := other.Issue(auth.Caller{AccountID: id, Email: "victim@example.com", PermissionLevel: auth.LevelElevated})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/v1/identity/current", forged, nil)
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestWSTicket_Issue(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "ws@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/identity/ws-ticket", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expiresIn"`
	}
	decode(t, w, &body)
	if len(body.Ticket) != 2*ticketBytes || body.ExpiresIn != 60 {
		t.Errorf("body = %+v", body)
	}

	w = env.do(t, http.MethodPost, "/api/v1/identity/ws-ticket", "", nil)
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
}
