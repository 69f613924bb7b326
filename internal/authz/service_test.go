package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
)

type memberRow struct {
	userID  int64
	teamID  int64
	role    authz.Role
	deleted bool
}

type memoryStore struct {
	teams     map[int64]authz.Team
	members   []memberRow
	orgAdmins map[int64]map[int64]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		teams:     make(map[int64]authz.Team),
		orgAdmins: make(map[int64]map[int64]bool),
	}
}

func (s *memoryStore) addTeam(id, orgID int64, name string) {
	s.teams[id] = authz.Team{ID: id, OrgID: orgID, Name: name}
}

func (s *memoryStore) addMember(userID, teamID int64, role authz.Role) {
	s.members = append(s.members, memberRow{userID: userID, teamID: teamID, role: role})
}

func (s *memoryStore) softDeleteMember(userID, teamID int64) {
	for i := range s.members {
		if s.members[i].userID == userID && s.members[i].teamID == teamID {
			s.members[i].deleted = true
		}
	}
}

func (s *memoryStore) addOrgAdmin(userID, orgID int64) {
	if s.orgAdmins[orgID] == nil {
		s.orgAdmins[orgID] = make(map[int64]bool)
	}
	s.orgAdmins[orgID][userID] = true
}

func (s *memoryStore) FindTeam(ctx context.Context, teamID int64) (authz.Team, error) {
	team, ok := s.teams[teamID]
	if !ok {
		return authz.Team{}, authz.ErrNotFound
	}
	return team, nil
}

func (s *memoryStore) FindMembership(ctx context.Context, userID, teamID int64) (*authz.Membership, error) {
	for _, m := range s.members {
		if m.userID == userID && m.teamID == teamID && !m.deleted {
			return &authz.Membership{UserID: m.userID, TeamID: m.teamID, Role: m.role}, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error) {
	return s.orgAdmins[orgID][userID], nil
}

func (s *memoryStore) FirstTeamFor(ctx context.Context, userID int64) (*authz.Team, error) {
	for _, m := range s.members {
		if m.userID == userID && !m.deleted {
			team := s.teams[m.teamID]
			return &team, nil
		}
	}
	return nil, nil
}

func TestRequireTeamAccessMembership(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addMember(100, 1, authz.RoleMember)
	svc := authz.NewService(store)

	access, err := svc.RequireTeamAccess(context.Background(), authz.Identity{UserID: 100}, 1)
	require.NoError(t, err)
	require.Equal(t, authz.RoleMember, access.Role)
	require.True(t, access.HasMembership)
	require.False(t, access.IsOrgAdmin)
	require.Equal(t, int64(10), access.OrgID)
}

func TestRequireTeamAccessDeniedWithoutBasis(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	svc := authz.NewService(store)

	_, err := svc.RequireTeamAccess(context.Background(), authz.Identity{UserID: 100}, 1)
	require.ErrorIs(t, err, authz.ErrDenied)
}

func TestRequireTeamAccessSoftDeletedMembershipInvisible(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addMember(100, 1, authz.RoleManager)
	store.softDeleteMember(100, 1)
	svc := authz.NewService(store)

	_, err := svc.RequireTeamAccess(context.Background(), authz.Identity{UserID: 100}, 1)
	require.ErrorIs(t, err, authz.ErrDenied)
}

func TestRequireTeamAccessTeamMissing(t *testing.T) {
	svc := authz.NewService(newMemoryStore())

	_, err := svc.RequireTeamAccess(context.Background(), authz.Identity{UserID: 100}, 99)
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestRequireTeamAccessUnauthenticated(t *testing.T) {
	svc := authz.NewService(newMemoryStore())

	_, err := svc.RequireTeamAccess(context.Background(), authz.Identity{}, 1)
	require.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestRequireTeamAccessOrgAdminWithoutMembership(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addOrgAdmin(200, 10)
	svc := authz.NewService(store)

	access, err := svc.RequireTeamAccess(context.Background(), authz.Identity{UserID: 200}, 1)
	require.NoError(t, err)
	require.True(t, access.IsOrgAdmin)
	require.False(t, access.HasMembership)
	require.Equal(t, authz.RoleMember, access.Role)
}

func TestRequireRoleManagerTier(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addMember(100, 1, authz.RoleMember)
	store.addMember(101, 1, authz.RoleManager)
	store.addOrgAdmin(200, 10)
	svc := authz.NewService(store)
	ctx := context.Background()

	// Member A passes team access but fails the manager tier.
	_, err := svc.RequireTeamAccess(ctx, authz.Identity{UserID: 100}, 1)
	require.NoError(t, err)
	_, err = svc.RequireRole(ctx, authz.Identity{UserID: 100}, 1, authz.RoleManager)
	require.ErrorIs(t, err, authz.ErrDenied)

	// A literal manager passes.
	_, err = svc.RequireRole(ctx, authz.Identity{UserID: 101}, 1, authz.RoleManager)
	require.NoError(t, err)

	// Org admin B bypasses any role requirement without a membership.
	access, err := svc.RequireRole(ctx, authz.Identity{UserID: 200}, 1, authz.RoleManager)
	require.NoError(t, err)
	require.True(t, access.IsOrgAdmin)
}

func TestRequireRoleBaselineAcceptsAnyMembership(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addMember(100, 1, authz.RoleMember)
	svc := authz.NewService(store)

	_, err := svc.RequireRole(context.Background(), authz.Identity{UserID: 100}, 1, authz.RoleMember)
	require.NoError(t, err)
}

func TestRequireOrgAdmin(t *testing.T) {
	store := newMemoryStore()
	store.addOrgAdmin(200, 10)
	svc := authz.NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.RequireOrgAdmin(ctx, authz.Identity{UserID: 200}, 10))
	require.ErrorIs(t, svc.RequireOrgAdmin(ctx, authz.Identity{UserID: 100}, 10), authz.ErrDenied)
	require.ErrorIs(t, svc.RequireOrgAdmin(ctx, authz.Identity{}, 10), authz.ErrUnauthenticated)
}

func TestAuthorizeMutation(t *testing.T) {
	member := authz.TeamAccess{UserID: 100, Role: authz.RoleMember}
	manager := authz.TeamAccess{UserID: 101, Role: authz.RoleManager}
	orgAdmin := authz.TeamAccess{UserID: 200, Role: authz.RoleMember, IsOrgAdmin: true}

	require.NoError(t, authz.AuthorizeMutation(member, true))
	require.ErrorIs(t, authz.AuthorizeMutation(member, false), authz.ErrDenied)
	require.NoError(t, authz.AuthorizeMutation(manager, false))
	require.NoError(t, authz.AuthorizeMutation(orgAdmin, false))
}

func newActiveTeamManager(store *memoryStore) *authz.ActiveTeamManager {
	return authz.NewActiveTeamManager(authz.NewService(store), "jar_active_team", time.Hour, false)
}

func TestActiveTeamSetRevalidates(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addTeam(2, 10, "Board")
	store.addMember(100, 1, authz.RoleMember)
	mgr := newActiveTeamManager(store)
	ctx := context.Background()

	res := httptest.NewRecorder()
	resolved, err := mgr.Set(ctx, res, authz.Identity{UserID: 100}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), resolved.Team.ID)
	require.NotEmpty(t, res.Result().Cookies())

	// Not a member of team 2: selection must not be persisted.
	res = httptest.NewRecorder()
	_, err = mgr.Set(ctx, res, authz.Identity{UserID: 100}, 2)
	require.ErrorIs(t, err, authz.ErrDenied)
	require.Empty(t, res.Result().Cookies())
}

func TestActiveTeamResolveFallsBackToFirstTeam(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addMember(100, 1, authz.RoleMember)
	mgr := newActiveTeamManager(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	resolved, err := mgr.Resolve(context.Background(), res, req, authz.Identity{UserID: 100})
	require.NoError(t, err)
	require.Equal(t, int64(1), resolved.Team.ID)

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "jar_active_team", cookies[0].Name)
	require.Equal(t, "1", cookies[0].Value)
}

func TestActiveTeamResolveIgnoresStaleCookie(t *testing.T) {
	store := newMemoryStore()
	store.addTeam(1, 10, "Platform")
	store.addTeam(2, 20, "Other org")
	store.addMember(100, 1, authz.RoleMember)
	mgr := newActiveTeamManager(store)

	// Cookie points at a team the user cannot access.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jar_active_team", Value: "2"})
	res := httptest.NewRecorder()
	resolved, err := mgr.Resolve(context.Background(), res, req, authz.Identity{UserID: 100})
	require.NoError(t, err)
	require.Equal(t, int64(1), resolved.Team.ID)
}

func TestActiveTeamResolveNoTeams(t *testing.T) {
	store := newMemoryStore()
	mgr := newActiveTeamManager(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	_, err := mgr.Resolve(context.Background(), res, req, authz.Identity{UserID: 100})
	require.ErrorIs(t, err, authz.ErrNotFound)
}
