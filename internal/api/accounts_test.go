package api

import (
	"net/http"
	"testing"

	"github.com/nerrad567/projecthub/internal/account"
)

const missingID = "5f0c3e1e-8a43-4e0b-9a3b-2f1d7c1b9e00"

func TestAccounts_ElevatedRoutesRejectStandard(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signUp(t, "std@example.com")

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/accounts", nil},
		{http.MethodPost, "/api/v1/accounts", map[string]string{
			"emailAddress": "x@example.com", "secretKey": "secret-key", "givenName": "X", "familyName": "Y",
		}},
		{http.MethodDelete, "/api/v1/accounts/" + id, nil},
		{http.MethodGet, "/api/v1/metrics", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, token, tt.body)
			e := expectError(t, w, http.StatusForbidden, ErrCodeForbidden)
			if e.Message != "insufficient permissions" {
				t.Errorf("message = %q", e.Message)
			}
		})
	}
}

func TestAccounts_RegisterAndList(t *testing.T) {
	env := newTestEnv(t)
	admin, adminID := env.seedElevated(t, "admin@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/accounts", admin, map[string]string{
		"emailAddress":    "ops@example.com",
		"secretKey":       "secret-key",
		"givenName":       "Ops",
		"familyName":      "Person",
		"permissionLevel": "elevated",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d (body %s)", w.Code, w.Body)
	}
	var created account.Account
	decode(t, w, &created)
	if created.PermissionLevel != "elevated" || !created.AccountActive {
		t.Errorf("created = %+v", created)
	}

	w = env.do(t, http.MethodPost, "/api/v1/accounts", admin, map[string]string{
		"emailAddress": "ops@example.com", "secretKey": "secret-key", "givenName": "Ops", "familyName": "Again",
	})
	expectError(t, w, http.StatusConflict, ErrCodeConflict)

	w = env.do(t, http.MethodGet, "/api/v1/accounts", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list []account.Account
	decode(t, w, &list)
	if len(list) != 2 || list[0].ID != created.ID || list[1].ID != adminID {
		t.Errorf("list = %+v, want newest first", list)
	}
}

func TestAccounts_GetOrdering(t *testing.T) {
	env := newTestEnv(t)
	tokenA, idA := env.signUp(t, "a@example.com")
	_, idB := env.signUp(t, "b@example.com")

	if w := env.do(t, http.MethodGet, "/api/v1/accounts/"+idA, tokenA, nil); w.Code != http.StatusOK {
		t.Errorf("own account status = %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/accounts/"+idB, tokenA, nil)
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)

	// A missing record is reported before ownership.
	w = env.do(t, http.MethodGet, "/api/v1/accounts/"+missingID, tokenA, nil)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = env.do(t, http.MethodGet, "/api/v1/accounts/not-a-uuid", tokenA, nil)
	e := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	if e.Message != "Validation failed (uuid is expected)" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestAccounts_ModifyOwn(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signUp(t, "self@example.com")
	env.signUp(t, "taken@example.com")

	w := env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, token, map[string]string{"givenName": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body)
	}
	var a account.Account
	decode(t, w, &a)
	if a.GivenName != "Renamed" || a.FamilyName != "User" || a.EmailAddress != "self@example.com" {
		t.Errorf("merged account = %+v", a)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, token, map[string]string{"emailAddress": "taken@example.com"})
	expectError(t, w, http.StatusConflict, ErrCodeConflict)

	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, token, map[string]string{"secretKey": "fresh-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("secret change status = %d", w.Code)
	}
	w = env.do(t, http.MethodPost, "/api/v1/identity/sign-in", "", map[string]string{
		"emailAddress": "self@example.com", "secretKey": "fresh-key",
	})
	if w.Code != http.StatusOK {
		t.Errorf("sign-in with new secret status = %d", w.Code)
	}
}

func TestAccounts_PrivilegeChangesTakeEffectImmediately(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.seedElevated(t, "admin@example.com")
	token, id := env.signUp(t, "climber@example.com")

	// A standard caller cannot promote itself.
	w := env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, token, map[string]string{"permissionLevel": "elevated"})
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)
	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, token, map[string]any{"accountActive": false})
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = env.do(t, http.MethodGet, "/api/v1/accounts", token, nil)
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)

	// Promotion by an elevated caller applies to the token already issued.
	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, admin, map[string]string{"permissionLevel": "elevated"})
	if w.Code != http.StatusOK {
		t.Fatalf("promote status = %d (body %s)", w.Code, w.Body)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/accounts", token, nil); w.Code != http.StatusOK {
		t.Errorf("promoted token list status = %d, want 200", w.Code)
	}

	// So does demotion.
	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, admin, map[string]string{"permissionLevel": "standard"})
	if w.Code != http.StatusOK {
		t.Fatalf("demote status = %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/v1/accounts", token, nil)
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)

	// Deactivation invalidates the token outright.
	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, admin, map[string]any{"accountActive": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/v1/identity/current", token, nil)
	e := expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	if e.Message != "account is inactive" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestAccounts_ModifyValidation(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.seedElevated(t, "admin@example.com")
	_, id := env.signUp(t, "target@example.com")

	w := env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, admin, map[string]string{"permissionLevel": "root"})
	expectError(t, w, http.StatusBadRequest, ErrCodeValidation)

	// Validation runs before the record lookup.
	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+missingID, admin, map[string]string{"emailAddress": "nope"})
	expectError(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+missingID, admin, map[string]string{"givenName": "Ghost"})
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = env.do(t, http.MethodPatch, "/api/v1/accounts/"+id, admin, map[string]string{"nickname": "x"})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestAccounts_Remove(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.seedElevated(t, "admin@example.com")
	token, id := env.signUp(t, "leaving@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/projects", token, map[string]string{"projectName": "Orphan"})
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate status = %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/accounts/"+id, admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d (body %s)", w.Code, w.Body)
	}
	var removal account.Removal
	decode(t, w, &removal)
	if removal.Confirmation != "Account "+id+" has been removed" {
		t.Errorf("confirmation = %q", removal.Confirmation)
	}

	w = env.do(t, http.MethodGet, "/api/v1/identity/current", token, nil)
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	w = env.do(t, http.MethodGet, "/api/v1/projects", admin, nil)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("projects after cascade = %s, want []", body)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/accounts/"+id, admin, nil)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
}
