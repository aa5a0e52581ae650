package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nerrad567/projecthub/internal/auth"
)

// Bootstrap creates the first elevated account on an empty store so that
// account management is reachable on a fresh install. It is skipped when
// no email is configured or any account already exists.
// Returns the created account, or nil if seeding was skipped.
func Bootstrap(ctx context.Context, svc *Service, in RegisterInput, logger *slog.Logger) (*Account, error) {
	if in.EmailAddress == "" {
		return nil, nil
	}

	count, err := svc.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking account count: %w", err)
	}
	if count > 0 {
		logger.Info("accounts exist, skipping bootstrap")
		return nil, nil
	}

	if in.GivenName == "" {
		in.GivenName = "System"
	}
	if in.FamilyName == "" {
		in.FamilyName = "Administrator"
	}
	in.PermissionLevel = auth.LevelElevated

	a, err := svc.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating bootstrap account: %w", err)
	}

	logger.Warn("bootstrap elevated account created",
		"account_id", a.ID,
		"email", a.EmailAddress,
		"action_required", "rotate the bootstrap secret and remove it from configuration",
	)
	return a, nil
}
