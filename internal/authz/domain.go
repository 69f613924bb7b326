// Package authz decides who may act on which team or org. Every entity
// module routes its access checks through this package; nothing here knows
// about individual entity types beyond their owning team.
package authz

import "errors"

// Role is a membership tier within a team.
type Role string

const (
	// RoleMember is the baseline tier.
	RoleMember Role = "member"
	// RoleManager is the elevated tier required for destructive or
	// cross-user mutations.
	RoleManager Role = "manager"
)

// Valid reports whether the role is a known tier.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleManager
}

// Distinct failure kinds. Callers map these to sign-in redirects, 404s and
// 403s respectively, so they must stay distinguishable.
var (
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	ErrNotFound        = errors.New("authz: not found")
	ErrDenied          = errors.New("authz: access denied")
)

// Identity is the authenticated actor. It is resolved once per request by
// the session middleware and passed explicitly into every check.
type Identity struct {
	UserID int64
}

// Team is the subset of a team row the access layer needs.
type Team struct {
	ID    int64
	OrgID int64
	Name  string
}

// Membership is a user's non-deleted role-bearing link to a team.
type Membership struct {
	UserID int64
	TeamID int64
	Role   Role
}

// TeamAccess is the result of a successful access check.
//
// An org admin with no explicit membership is granted access with the
// baseline role and HasMembership false; the flag is the named signal for
// that case so callers never have to compare the baseline role string to
// detect it.
type TeamAccess struct {
	UserID        int64
	TeamID        int64
	OrgID         int64
	Role          Role
	IsOrgAdmin    bool
	HasMembership bool
}
