package auth

import "slices"

// PermissionLevel is an account's authorisation tier.
type PermissionLevel string

const (
	// LevelStandard may act only on records it owns.
	LevelStandard PermissionLevel = "standard"

	// LevelElevated bypasses ownership checks and field restrictions and may
	// manage other accounts.
	LevelElevated PermissionLevel = "elevated"
)

// Valid reports whether l is a known permission level.
func (l PermissionLevel) Valid() bool {
	return l == LevelStandard || l == LevelElevated
}

// Caller is the authenticated identity behind a request. It is built from
// the live account record, never from token claims alone.
type Caller struct {
	AccountID       string
	Email           string
	PermissionLevel PermissionLevel
}

// Elevated reports whether the caller holds the elevated level.
func (c Caller) Elevated() bool {
	return c.PermissionLevel == LevelElevated
}

// RoutePolicy is the set of permission levels an operation admits.
type RoutePolicy struct {
	name   string
	levels []PermissionLevel
}

var (
	// RequireElevated admits only elevated callers.
	RequireElevated = RoutePolicy{name: "elevated", levels: []PermissionLevel{LevelElevated}}

	// AnyAuthenticated admits every authenticated caller.
	AnyAuthenticated = RoutePolicy{name: "authenticated", levels: []PermissionLevel{LevelStandard, LevelElevated}}
)

// String returns the policy name.
func (p RoutePolicy) String() string {
	return p.name
}

// Allows reports whether level is admitted by the policy.
func (p RoutePolicy) Allows(level PermissionLevel) bool {
	return slices.Contains(p.levels, level)
}

// Authorize is the route gate. It returns ErrForbidden when the caller's
// level is not admitted by policy.
func Authorize(caller Caller, policy RoutePolicy) error {
	if !policy.Allows(caller.PermissionLevel) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeRecord is the ownership gate. Callers must have confirmed the
// record exists before calling it, so that a missing record reports not
// found rather than forbidden.
func AuthorizeRecord(caller Caller, ownerID string) error {
	if caller.Elevated() || (caller.AccountID != "" && caller.AccountID == ownerID) {
		return nil
	}
	return ErrForbidden
}

// Field names an editable account attribute.
type Field string

// Account fields that can appear in an edit.
const (
	FieldEmailAddress    Field = "emailAddress"
	FieldSecret          Field = "secretKey"
	FieldGivenName       Field = "givenName"
	FieldFamilyName      Field = "familyName"
	FieldPermissionLevel Field = "permissionLevel"
	FieldAccountActive   Field = "accountActive"
)

// restrictedFields may only be changed by an elevated caller.
var restrictedFields = []Field{FieldPermissionLevel, FieldAccountActive}

// FieldSet is the set of fields present in an edit request. Presence counts,
// not whether the value differs from the stored one.
type FieldSet map[Field]struct{}

// NewFieldSet builds a FieldSet from the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether f is present.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// AuthorizeAccountEdit is the field gate for account edits. It applies the
// ownership gate first, then refuses a standard caller whose change set
// touches a restricted field.
func AuthorizeAccountEdit(caller Caller, targetID string, changes FieldSet) error {
	if err := AuthorizeRecord(caller, targetID); err != nil {
		return err
	}
	if caller.Elevated() {
		return nil
	}
	for _, f := range restrictedFields {
		if changes.Has(f) {
			return ErrForbidden
		}
	}
	return nil
}
