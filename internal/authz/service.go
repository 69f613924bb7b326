package authz

import (
	"context"
	"fmt"
)

// Service answers "may this user act on that team/org". All checks are
// fail-closed: a lookup error, a missing row or an unknown role results in
// denial, never in default-allow.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RequireTeamAccess grants access when the user holds a non-deleted
// membership in the team or is an admin of the team's owning org. Returns
// ErrNotFound when the team does not exist and ErrDenied when neither basis
// holds.
func (s *Service) RequireTeamAccess(ctx context.Context, id Identity, teamID int64) (TeamAccess, error) {
	if id.UserID == 0 {
		return TeamAccess{}, ErrUnauthenticated
	}

	team, err := s.store.FindTeam(ctx, teamID)
	if err != nil {
		return TeamAccess{}, err
	}

	membership, err := s.store.FindMembership(ctx, id.UserID, teamID)
	if err != nil {
		return TeamAccess{}, err
	}

	isOrgAdmin, err := s.store.IsOrgAdmin(ctx, id.UserID, team.OrgID)
	if err != nil {
		return TeamAccess{}, err
	}

	if membership == nil && !isOrgAdmin {
		return TeamAccess{}, fmt.Errorf("%w: user %d has no access to team %d", ErrDenied, id.UserID, teamID)
	}

	access := TeamAccess{
		UserID:     id.UserID,
		TeamID:     team.ID,
		OrgID:      team.OrgID,
		Role:       RoleMember,
		IsOrgAdmin: isOrgAdmin,
	}
	if membership != nil {
		access.HasMembership = true
		if membership.Role.Valid() {
			access.Role = membership.Role
		}
	}
	return access, nil
}

// RequireRole grants access when the user passes RequireTeamAccess and holds
// at least the required tier. Org admins satisfy any role requirement. The
// manager tier is only satisfied by a literal manager membership.
func (s *Service) RequireRole(ctx context.Context, id Identity, teamID int64, required Role) (TeamAccess, error) {
	access, err := s.RequireTeamAccess(ctx, id, teamID)
	if err != nil {
		return TeamAccess{}, err
	}
	if access.IsOrgAdmin {
		return access, nil
	}
	if required == RoleMember {
		return access, nil
	}
	if required == RoleManager && access.Role == RoleManager {
		return access, nil
	}
	return TeamAccess{}, fmt.Errorf("%w: user %d is not a %s of team %d", ErrDenied, id.UserID, required, teamID)
}

// RequireOrgAdmin grants access only to holders of a non-deleted admin grant
// for the org.
func (s *Service) RequireOrgAdmin(ctx context.Context, id Identity, orgID int64) error {
	if id.UserID == 0 {
		return ErrUnauthenticated
	}
	isAdmin, err := s.store.IsOrgAdmin(ctx, id.UserID, orgID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("%w: user %d is not an admin of org %d", ErrDenied, id.UserID, orgID)
	}
	return nil
}

// AuthorizeMutation encodes the shared entity mutation rule: the row's owner
// may mutate it, anyone else needs the manager tier (or org-admin bypass,
// already folded into the access value).
func AuthorizeMutation(access TeamAccess, isOwner bool) error {
	if isOwner {
		return nil
	}
	if access.IsOrgAdmin || access.Role == RoleManager {
		return nil
	}
	return fmt.Errorf("%w: user %d may not mutate rows owned by others", ErrDenied, access.UserID)
}
