package account

import (
	"context"
	"testing"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/infrastructure/logging"
)

func TestBootstrap_SeedsEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	logger := logging.Discard().Logger

	a, err := Bootstrap(ctx, svc, RegisterInput{EmailAddress: "root@example.com", SecretKey: "bootstrap-secret"}, logger)
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if a == nil {
		t.Fatal("Bootstrap() returned nil on an empty store")
	}
	if a.PermissionLevel != auth.LevelElevated {
		t.Errorf("PermissionLevel = %q, want elevated", a.PermissionLevel)
	}
	if a.GivenName == "" || a.FamilyName == "" {
		t.Errorf("names should default, got %q %q", a.GivenName, a.FamilyName)
	}

	again, err := Bootstrap(ctx, svc, RegisterInput{EmailAddress: "second@example.com", SecretKey: "bootstrap-secret"}, logger)
	if err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	if again != nil {
		t.Error("Bootstrap() should skip when accounts exist")
	}
}

func TestBootstrap_SkipsWithoutEmail(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := Bootstrap(context.Background(), svc, RegisterInput{}, logging.Discard().Logger)
	if err != nil || a != nil {
		t.Errorf("Bootstrap() = %v, %v; want nil, nil", a, err)
	}
}
