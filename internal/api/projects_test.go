package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/nerrad567/projecthub/internal/project"
)

func initiate(t *testing.T, env *testEnv, token string, body map[string]string) project.Project {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/projects", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate status = %d (body %s)", w.Code, w.Body)
	}
	var p project.Project
	decode(t, w, &p)
	return p
}

func listIDs(t *testing.T, env *testEnv, token string) []string {
	t.Helper()
	w := env.do(t, http.MethodGet, "/api/v1/projects", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list []project.Project
	decode(t, w, &list)
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}

func TestProjects_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/projects", "", nil)
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestProjects_InitiateDefaults(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signUp(t, "owner@example.com")

	p := initiate(t, env, token, map[string]string{"projectName": "  Launch  "})
	if p.Name != "Launch" || p.Progress != project.ProgressNotStarted || p.Urgency != project.UrgencyNormal {
		t.Errorf("project = %+v", p)
	}
	if p.OwnerID != id || p.TargetDate != nil || p.Owner != nil {
		t.Errorf("project = %+v", p)
	}
}

func TestProjects_InitiateValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "owner@example.com")

	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"missing name", map[string]string{}, "Project name is required"},
		{"long name", map[string]string{"projectName": strings.Repeat("n", 201)}, "Project name cannot exceed 200 characters"},
		{"bad progress", map[string]string{"projectName": "x", "progress": "done"}, "Progress must be not_started, working, or finished"},
		{"bad urgency", map[string]string{"projectName": "x", "urgency": "urgent"}, "Urgency must be minimal, normal, or critical"},
		{"bad date", map[string]string{"projectName": "x", "targetDate": "next week"}, "Target date must be a valid date format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/projects", token, tt.body)
			e := expectError(t, w, http.StatusBadRequest, ErrCodeValidation)
			if e.Message != tt.msg {
				t.Errorf("message = %q, want %q", e.Message, tt.msg)
			}
		})
	}
}

func TestProjects_OwnershipScenario(t *testing.T) {
	env := newTestEnv(t)
	tokenA, idA := env.signUp(t, "a@example.com")
	tokenB, _ := env.signUp(t, "b@example.com")
	tokenC, _ := env.seedElevated(t, "c@example.com")

	p1 := initiate(t, env, tokenA, map[string]string{"projectName": "P1"})
	p2 := initiate(t, env, tokenA, map[string]string{"projectName": "P2", "urgency": "critical", "targetDate": "2026-12-01"})
	p3 := initiate(t, env, tokenB, map[string]string{"projectName": "P3"})

	if got := listIDs(t, env, tokenA); !equalStrings(got, []string{p2.ID, p1.ID}) {
		t.Errorf("A list = %v", got)
	}
	if got := listIDs(t, env, tokenB); !equalStrings(got, []string{p3.ID}) {
		t.Errorf("B list = %v", got)
	}
	if got := listIDs(t, env, tokenC); !equalStrings(got, []string{p3.ID, p2.ID, p1.ID}) {
		t.Errorf("C list = %v", got)
	}

	// Elevated listings carry owner info.
	w := env.do(t, http.MethodGet, "/api/v1/projects", tokenC, nil)
	var all []project.Project
	decode(t, w, &all)
	if all[2].Owner == nil || all[2].Owner.ID != idA || all[2].Owner.EmailAddress != "a@example.com" {
		t.Errorf("elevated listing owner = %+v", all[2].Owner)
	}

	w = env.do(t, http.MethodGet, "/api/v1/projects/"+p1.ID, tokenB, nil)
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)
	w = env.do(t, http.MethodPatch, "/api/v1/projects/"+p1.ID, tokenB, map[string]string{"progress": "finished"})
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)
	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+p1.ID, tokenB, nil)
	expectError(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = env.do(t, http.MethodGet, "/api/v1/projects/"+missingID, tokenB, nil)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = env.do(t, http.MethodGet, "/api/v1/projects/"+p2.ID, tokenA, nil)
	var got project.Project
	decode(t, w, &got)
	if got.TargetDate == nil || got.TargetDate.String() != "2026-12-01" || got.Urgency != project.UrgencyCritical {
		t.Errorf("p2 = %+v", got)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/projects/"+p3.ID, tokenC, map[string]string{"progress": "working"})
	if w.Code != http.StatusOK {
		t.Fatalf("elevated edit status = %d", w.Code)
	}
	decode(t, w, &got)
	if got.Progress != project.ProgressWorking || got.Name != "P3" {
		t.Errorf("elevated edit = %+v", got)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+p1.ID, tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("terminate status = %d", w.Code)
	}
	var term project.Termination
	decode(t, w, &term)
	if term.Confirmation != "Project "+p1.ID+" has been terminated" {
		t.Errorf("confirmation = %q", term.Confirmation)
	}
	w = env.do(t, http.MethodGet, "/api/v1/projects/"+p1.ID, tokenA, nil)
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestProjects_EditMerge(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "owner@example.com")
	p := initiate(t, env, token, map[string]string{
		"projectName": "Original", "projectDetails": "Details", "targetDate": "2026-11-11",
	})

	w := env.do(t, http.MethodPatch, "/api/v1/projects/"+p.ID, token, map[string]string{"urgency": "minimal"})
	if w.Code != http.StatusOK {
		t.Fatalf("edit status = %d (body %s)", w.Code, w.Body)
	}
	var got project.Project
	decode(t, w, &got)
	if got.Name != "Original" || got.Details != "Details" || got.Urgency != project.UrgencyMinimal {
		t.Errorf("merged = %+v", got)
	}
	if got.TargetDate == nil || got.TargetDate.String() != "2026-11-11" {
		t.Errorf("targetDate = %v", got.TargetDate)
	}
	if !got.InitiatedAt.Equal(p.InitiatedAt) || got.LastUpdatedAt.Before(p.LastUpdatedAt) {
		t.Errorf("timestamps: initiated %v -> %v, updated %v -> %v",
			p.InitiatedAt, got.InitiatedAt, p.LastUpdatedAt, got.LastUpdatedAt)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/projects/"+p.ID, token, map[string]string{"ownerId": "someone"})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = env.do(t, http.MethodPatch, "/api/v1/projects/bogus", token, map[string]string{"urgency": "minimal"})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
