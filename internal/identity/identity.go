// Package identity implements sign-up, sign-in and current-account lookup
// for ProjectHub, issuing stateless session tokens on success.
package identity

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/auth"
)

// Outcome messages.
const (
	OutcomeRegistered    = "Registration successful"
	OutcomeAuthenticated = "Authentication successful"
)

// Session is returned by a successful sign-up or sign-in.
type Session struct {
	Outcome     string       `json:"outcome"`
	AccountInfo account.Info `json:"accountInfo"`
	AuthToken   string       `json:"authToken"`
}

// SignUpInput is the self-registration payload. Self-registered accounts
// are always standard.
type SignUpInput struct {
	EmailAddress string `json:"emailAddress"`
	SecretKey    string `json:"secretKey"`
	GivenName    string `json:"givenName"`
	FamilyName   string `json:"familyName"`
}

// SignInInput is the credential payload.
type SignInInput struct {
	EmailAddress string `json:"emailAddress"`
	SecretKey    string `json:"secretKey"`
}

// Service authenticates accounts.
type Service struct {
	accounts *account.Service
	tokens   *auth.TokenIssuer
}

// NewService creates an identity service.
func NewService(accounts *account.Service, tokens *auth.TokenIssuer) *Service {
	return &Service{accounts: accounts, tokens: tokens}
}

// SignUp registers a standard account and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	a, err := s.accounts.Create(ctx, account.RegisterInput{
		EmailAddress:    in.EmailAddress,
		SecretKey:       in.SecretKey,
		GivenName:       in.GivenName,
		FamilyName:      in.FamilyName,
		PermissionLevel: auth.LevelStandard,
	})
	if err != nil {
		return nil, err
	}
	return s.session(OutcomeRegistered, a)
}

// SignIn verifies credentials. An unknown email, an inactive account and a
// wrong secret are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	email := account.NormalizeEmail(in.EmailAddress)
	if err := account.ValidateEmail(email); err != nil {
		return nil, err
	}
	if in.SecretKey == "" {
		return nil, &account.ValidationError{Field: "secretKey", Message: "Secret key is required"}
	}
	if utf8.RuneCountInString(in.SecretKey) < account.MinSecretLength {
		return nil, &account.ValidationError{Field: "secretKey", Message: "Secret key must contain at least 6 characters"}
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			s.accounts.VerifyNoAccount(in.SecretKey)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	ok, err := s.accounts.VerifySecret(a, in.SecretKey)
	if err != nil && !errors.Is(err, auth.ErrMalformedDigest) {
		return nil, fmt.Errorf("verifying secret: %w", err)
	}
	if !ok || !a.AccountActive {
		return nil, auth.ErrInvalidCredentials
	}

	return s.session(OutcomeAuthenticated, a)
}

// Current re-fetches the account behind an authenticated request.
func (s *Service) Current(ctx context.Context, accountID string) (*account.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

// Authenticate verifies a session token and resolves it to the live
// account. A missing or inactive account invalidates the token.
func (s *Service) Authenticate(ctx context.Context, token string) (*account.Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	a, err := s.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", auth.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("resolving token subject: %w", err)
	}
	if !a.AccountActive {
		return nil, auth.ErrAccountInactive
	}
	return a, nil
}

func (s *Service) session(outcome string, a *account.Account) (*Session, error) {
	token, err := s.tokens.Issue(a.Caller())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{Outcome: outcome, AccountInfo: a.Info(), AuthToken: token}, nil
}
