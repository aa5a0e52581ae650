package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
)

// Service implements account management on top of a Repository.
type Service struct {
	repo   Repository
	hasher auth.Hasher
	events events.Publisher
	now    func() time.Time

	decoyOnce   sync.Once
	decoyDigest string
}

// NewService creates an account service. A nil publisher discards events.
func NewService(repo Repository, hasher auth.Hasher, publisher events.Publisher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		events: events.OrNoop(publisher),
		now:    time.Now,
	}
}

// timestamp returns the current time at the storage precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Register creates an account on behalf of an elevated caller. The input may
// choose the permission level.
func (s *Service) Register(ctx context.Context, caller auth.Caller, in RegisterInput) (*Account, error) {
	if err := auth.Authorize(caller, auth.RequireElevated); err != nil {
		return nil, err
	}
	return s.Create(ctx, in)
}

// Create validates the input, hashes the secret and stores a new active
// account. It performs no authorisation; Register and sign-up gate it.
func (s *Service) Create(ctx context.Context, in RegisterInput) (*Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.EmailAddress); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hashSecret(in.SecretKey)
	if err != nil {
		return nil, err
	}

	level := in.PermissionLevel
	if level == "" {
		level = auth.LevelStandard
	}

	now := s.timestamp()
	a := &Account{
		ID:              uuid.NewString(),
		EmailAddress:    in.EmailAddress,
		SecretHash:      hash,
		GivenName:       in.GivenName,
		FamilyName:      in.FamilyName,
		PermissionLevel: level,
		AccountActive:   true,
		RegisteredAt:    now,
		ModifiedAt:      now,
	}

	// The store's UNIQUE constraint decides races the pre-check missed.
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ActionCreated, a)
	return a, nil
}

// List returns every account, newest first. Elevated only.
func (s *Service) List(ctx context.Context, caller auth.Caller) ([]Account, error) {
	if err := auth.Authorize(caller, auth.RequireElevated); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

// Get returns an account the caller owns or, for elevated callers, any account.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (*Account, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRecord(caller, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// Modify merges the present fields of in into the account and returns the
// stored result. An empty edit returns the record untouched.
func (s *Service) Modify(ctx context.Context, caller auth.Caller, id string, in ModifyInput) (*Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := in.Fields()
	if err := auth.AuthorizeAccountEdit(caller, a.ID, fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return a, nil
	}

	if in.EmailAddress != nil && *in.EmailAddress != a.EmailAddress {
		existing, err := s.repo.FindByEmail(ctx, *in.EmailAddress)
		switch {
		case err == nil && existing.ID != a.ID:
			return nil, ErrEmailExists
		case err != nil && !errors.Is(err, ErrAccountNotFound):
			return nil, fmt.Errorf("checking email: %w", err)
		}
		a.EmailAddress = *in.EmailAddress
	}
	if in.SecretKey != nil {
		hash, err := s.hashSecret(*in.SecretKey)
		if err != nil {
			return nil, err
		}
		a.SecretHash = hash
	}
	if in.GivenName != nil {
		a.GivenName = *in.GivenName
	}
	if in.FamilyName != nil {
		a.FamilyName = *in.FamilyName
	}
	if in.PermissionLevel != nil {
		a.PermissionLevel = *in.PermissionLevel
	}
	if in.AccountActive != nil {
		a.AccountActive = *in.AccountActive
	}
	a.ModifiedAt = s.timestamp()

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading account: %w", err)
	}

	s.publish(ctx, events.ActionUpdated, updated)
	return updated, nil
}

// Remove deletes an account and, by cascade, the projects it owns. Elevated only.
func (s *Service) Remove(ctx context.Context, caller auth.Caller, id string) (*Removal, error) {
	if err := auth.Authorize(caller, auth.RequireElevated); err != nil {
		return nil, err
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ActionDeleted, a)
	return &Removal{Confirmation: fmt.Sprintf("Account %s has been removed", a.ID)}, nil
}

// FindByID loads an account without any policy check. Used by the identity
// layer to re-validate token subjects.
func (s *Service) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail loads an account by normalized email without any policy check.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// hashSecret reports a secret the configured algorithm cannot take as a
// validation failure rather than an internal one.
func (s *Service) hashSecret(secret string) (string, error) {
	hash, err := s.hasher.Hash(secret)
	switch {
	case errors.Is(err, auth.ErrSecretTooLong):
		return "", invalid("secretKey", "Secret key cannot exceed 72 bytes")
	case err != nil:
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return hash, nil
}

// VerifyNoAccount does the verification work of VerifySecret against a
// fixed digest and always reports a mismatch. Sign-in calls it when no
// account matches so an unknown email costs the same as a wrong secret.
func (s *Service) VerifyNoAccount(secret string) bool {
	s.decoyOnce.Do(func() {
		s.decoyDigest, _ = s.hasher.Hash("projecthub-no-such-account") //nolint:errcheck // Verify then fails closed
	})
	s.hasher.Verify(secret, s.decoyDigest) //nolint:errcheck // result is discarded
	return false
}

// VerifySecret checks a plaintext secret against an account's digest.
func (s *Service) VerifySecret(a *Account, secret string) (bool, error) {
	return s.hasher.Verify(secret, a.SecretHash)
}

func (s *Service) publish(ctx context.Context, action events.Action, a *Account) {
	s.events.Publish(ctx, events.Event{
		Resource:   events.ResourceAccount,
		Action:     action,
		ID:         a.ID,
		OwnerID:    a.ID,
		OccurredAt: s.timestamp(),
		Data:       EventData{Info: a.Info(), AccountActive: a.AccountActive},
	})
}
