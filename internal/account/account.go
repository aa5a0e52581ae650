package account

import (
	"errors"
	"time"

	"github.com/nerrad567/projecthub/internal/auth"
)

// Account is a registered identity that can sign in and own projects.
type Account struct {
	ID              string               `json:"accountId"`
	EmailAddress    string               `json:"emailAddress"`
	SecretHash      string               `json:"-"` // never serialised
	GivenName       string               `json:"givenName"`
	FamilyName      string               `json:"familyName"`
	PermissionLevel auth.PermissionLevel `json:"permissionLevel"`
	AccountActive   bool                 `json:"accountActive"`
	RegisteredAt    time.Time            `json:"registeredAt"`
	ModifiedAt      time.Time            `json:"modifiedAt"`
}

// Info is the public view of an account returned on sign-in and embedded as
// a project owner.
type Info struct {
	ID              string               `json:"accountId"`
	EmailAddress    string               `json:"emailAddress"`
	GivenName       string               `json:"givenName"`
	FamilyName      string               `json:"familyName"`
	PermissionLevel auth.PermissionLevel `json:"permissionLevel"`
}

// Info returns the public view of a.
func (a *Account) Info() Info {
	return Info{
		ID:              a.ID,
		EmailAddress:    a.EmailAddress,
		GivenName:       a.GivenName,
		FamilyName:      a.FamilyName,
		PermissionLevel: a.PermissionLevel,
	}
}

// EventData is the payload of account events. Stream consumers use
// AccountActive and PermissionLevel to re-evaluate open sessions.
type EventData struct {
	Info
	AccountActive bool `json:"accountActive"`
}

// Caller returns the policy identity for a.
func (a *Account) Caller() auth.Caller {
	return auth.Caller{
		AccountID:       a.ID,
		Email:           a.EmailAddress,
		PermissionLevel: a.PermissionLevel,
	}
}

// Removal confirms an account deletion.
type Removal struct {
	Confirmation string `json:"confirmation"`
}

// Domain errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("an account with this email already exists")
	ErrInvalidAccount  = errors.New("invalid account")
)

// ValidationError describes a rejected account field. It matches
// ErrInvalidAccount under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap ties the error to ErrInvalidAccount.
func (e *ValidationError) Unwrap() error { return ErrInvalidAccount }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
