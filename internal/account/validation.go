package account

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/projecthub/internal/auth"
)

// Field limits.
const (
	MinSecretLength = 6
	MaxSecretLength = 50
	MaxNameLength   = 50
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	EmailAddress    string               `json:"emailAddress"`
	SecretKey       string               `json:"secretKey"`
	GivenName       string               `json:"givenName"`
	FamilyName      string               `json:"familyName"`
	PermissionLevel auth.PermissionLevel `json:"permissionLevel,omitempty"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *RegisterInput) Normalize() {
	in.EmailAddress = NormalizeEmail(in.EmailAddress)
	in.GivenName = strings.TrimSpace(in.GivenName)
	in.FamilyName = strings.TrimSpace(in.FamilyName)
}

// Validate checks a normalized RegisterInput.
func (in *RegisterInput) Validate() error {
	if err := ValidateEmail(in.EmailAddress); err != nil {
		return err
	}
	if err := ValidateSecret(in.SecretKey); err != nil {
		return err
	}
	if err := validateName("givenName", "Given name", in.GivenName); err != nil {
		return err
	}
	if err := validateName("familyName", "Family name", in.FamilyName); err != nil {
		return err
	}
	if in.PermissionLevel != "" && !in.PermissionLevel.Valid() {
		return invalid("permissionLevel", "Permission level must be standard or elevated")
	}
	return nil
}

// ModifyInput is a partial account edit. Nil fields are left unchanged.
type ModifyInput struct {
	EmailAddress    *string               `json:"emailAddress,omitempty"`
	SecretKey       *string               `json:"secretKey,omitempty"`
	GivenName       *string               `json:"givenName,omitempty"`
	FamilyName      *string               `json:"familyName,omitempty"`
	PermissionLevel *auth.PermissionLevel `json:"permissionLevel,omitempty"`
	AccountActive   *bool                 `json:"accountActive,omitempty"`
}

// Fields returns the set of fields present in the edit.
func (in *ModifyInput) Fields() auth.FieldSet {
	s := auth.NewFieldSet()
	if in.EmailAddress != nil {
		s[auth.FieldEmailAddress] = struct{}{}
	}
	if in.SecretKey != nil {
		s[auth.FieldSecret] = struct{}{}
	}
	if in.GivenName != nil {
		s[auth.FieldGivenName] = struct{}{}
	}
	if in.FamilyName != nil {
		s[auth.FieldFamilyName] = struct{}{}
	}
	if in.PermissionLevel != nil {
		s[auth.FieldPermissionLevel] = struct{}{}
	}
	if in.AccountActive != nil {
		s[auth.FieldAccountActive] = struct{}{}
	}
	return s
}

// Normalize trims surrounding whitespace from the present text fields.
func (in *ModifyInput) Normalize() {
	if in.EmailAddress != nil {
		v := NormalizeEmail(*in.EmailAddress)
		in.EmailAddress = &v
	}
	if in.GivenName != nil {
		v := strings.TrimSpace(*in.GivenName)
		in.GivenName = &v
	}
	if in.FamilyName != nil {
		v := strings.TrimSpace(*in.FamilyName)
		in.FamilyName = &v
	}
}

// Validate checks the present fields of a normalized ModifyInput.
func (in *ModifyInput) Validate() error {
	if in.EmailAddress != nil {
		if err := ValidateEmail(*in.EmailAddress); err != nil {
			return err
		}
	}
	if in.SecretKey != nil {
		if err := ValidateSecret(*in.SecretKey); err != nil {
			return err
		}
	}
	if in.GivenName != nil {
		if err := validateName("givenName", "Given name", *in.GivenName); err != nil {
			return err
		}
	}
	if in.FamilyName != nil {
		if err := validateName("familyName", "Family name", *in.FamilyName); err != nil {
			return err
		}
	}
	if in.PermissionLevel != nil && !in.PermissionLevel.Valid() {
		return invalid("permissionLevel", "Permission level must be standard or elevated")
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace. Comparison is otherwise exact.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ValidateEmail accepts a bare addr-spec with a dotted domain.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("emailAddress", "Email address cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("emailAddress", "A valid email address is required")
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("emailAddress", "A valid email address is required")
	}
	return nil
}

// ValidateSecret enforces the secret length bounds, in characters.
func ValidateSecret(secret string) error {
	if secret == "" {
		return invalid("secretKey", "Secret key is required")
	}
	n := utf8.RuneCountInString(secret)
	if n < MinSecretLength {
		return invalid("secretKey", "Secret key must contain at least 6 characters")
	}
	if n > MaxSecretLength {
		return invalid("secretKey", "Secret key cannot exceed 50 characters")
	}
	return nil
}

func validateName(field, label, value string) error {
	if value == "" {
		return invalid(field, label+" is required")
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return invalid(field, label+" cannot exceed 50 characters")
	}
	return nil
}
