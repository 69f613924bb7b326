package teams_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/teams"
)

type memberRow struct {
	teamID  int64
	userID  int64
	role    authz.Role
	deleted bool
}

type memoryTeamRepo struct {
	teams     map[int64]teams.Team
	members   []memberRow
	orgAdmins map[int64]map[int64]bool
	nextID    int64
}

func newMemoryTeamRepo() *memoryTeamRepo {
	return &memoryTeamRepo{
		teams:     make(map[int64]teams.Team),
		orgAdmins: make(map[int64]map[int64]bool),
	}
}

func (r *memoryTeamRepo) addOrgAdmin(userID, orgID int64) {
	if r.orgAdmins[orgID] == nil {
		r.orgAdmins[orgID] = make(map[int64]bool)
	}
	r.orgAdmins[orgID][userID] = true
}

func (r *memoryTeamRepo) WithTx(ctx context.Context, fn func(context.Context, teams.Repository) error) error {
	snapshot := make([]memberRow, len(r.members))
	copy(snapshot, r.members)
	if err := fn(ctx, r); err != nil {
		r.members = snapshot
		return err
	}
	return nil
}

func (r *memoryTeamRepo) Get(ctx context.Context, id int64) (*teams.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, teams.ErrNotFound
	}
	return &t, nil
}

func (r *memoryTeamRepo) ListForOrg(ctx context.Context, orgID int64) ([]teams.Team, error) {
	var out []teams.Team
	for _, t := range r.teams {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryTeamRepo) ListForUser(ctx context.Context, userID int64) ([]teams.Team, error) {
	var out []teams.Team
	for _, m := range r.members {
		if m.userID == userID && !m.deleted {
			out = append(out, r.teams[m.teamID])
		}
	}
	return out, nil
}

func (r *memoryTeamRepo) Create(ctx context.Context, orgID int64, name, description string) (int64, error) {
	r.nextID++
	r.teams[r.nextID] = teams.Team{ID: r.nextID, OrgID: orgID, Name: name, Description: description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	return r.nextID, nil
}

func (r *memoryTeamRepo) Update(ctx context.Context, id int64, name, description string) error {
	t, ok := r.teams[id]
	if !ok {
		return teams.ErrNotFound
	}
	t.Name = name
	t.Description = description
	r.teams[id] = t
	return nil
}

func (r *memoryTeamRepo) ListMembers(ctx context.Context, teamID int64) ([]teams.Membership, error) {
	var out []teams.Membership
	for _, m := range r.members {
		if m.teamID == teamID && !m.deleted {
			out = append(out, teams.Membership{TeamID: m.teamID, UserID: m.userID, Role: m.role})
		}
	}
	return out, nil
}

func (r *memoryTeamRepo) UpsertMember(ctx context.Context, teamID, userID int64, role authz.Role) error {
	for i := range r.members {
		if r.members[i].teamID == teamID && r.members[i].userID == userID {
			r.members[i].role = role
			r.members[i].deleted = false
			return nil
		}
	}
	r.members = append(r.members, memberRow{teamID: teamID, userID: userID, role: role})
	return nil
}

func (r *memoryTeamRepo) UpdateMemberRole(ctx context.Context, teamID, userID int64, role authz.Role) (bool, error) {
	for i := range r.members {
		if r.members[i].teamID == teamID && r.members[i].userID == userID && !r.members[i].deleted {
			r.members[i].role = role
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryTeamRepo) SoftDeleteMember(ctx context.Context, teamID, userID, deletedBy int64) (bool, error) {
	for i := range r.members {
		if r.members[i].teamID == teamID && r.members[i].userID == userID && !r.members[i].deleted {
			r.members[i].deleted = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryTeamRepo) CountManagers(ctx context.Context, teamID int64) (int, error) {
	count := 0
	for _, m := range r.members {
		if m.teamID == teamID && m.role == authz.RoleManager && !m.deleted {
			count++
		}
	}
	return count, nil
}

// teamAuthzStore adapts the memory repo into the access layer's Store.
type teamAuthzStore struct {
	repo *memoryTeamRepo
}

func (s teamAuthzStore) FindTeam(ctx context.Context, teamID int64) (authz.Team, error) {
	t, ok := s.repo.teams[teamID]
	if !ok {
		return authz.Team{}, authz.ErrNotFound
	}
	return authz.Team{ID: t.ID, OrgID: t.OrgID, Name: t.Name}, nil
}

func (s teamAuthzStore) FindMembership(ctx context.Context, userID, teamID int64) (*authz.Membership, error) {
	for _, m := range s.repo.members {
		if m.userID == userID && m.teamID == teamID && !m.deleted {
			return &authz.Membership{UserID: m.userID, TeamID: m.teamID, Role: m.role}, nil
		}
	}
	return nil, nil
}

func (s teamAuthzStore) IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error) {
	return s.repo.orgAdmins[orgID][userID], nil
}

func (s teamAuthzStore) FirstTeamFor(ctx context.Context, userID int64) (*authz.Team, error) {
	for _, m := range s.repo.members {
		if m.userID == userID && !m.deleted {
			t := s.repo.teams[m.teamID]
			return &authz.Team{ID: t.ID, OrgID: t.OrgID, Name: t.Name}, nil
		}
	}
	return nil, nil
}

func newTeamService(repo *memoryTeamRepo) *teams.Service {
	return teams.NewService(repo, authz.NewService(teamAuthzStore{repo: repo}), nil)
}

func TestCreateTeamRequiresOrgAdmin(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()

	team, err := svc.Create(ctx, authz.Identity{UserID: 100}, 10, "Platform", "")
	require.NoError(t, err)

	// Creator joins as the first manager.
	members, err := svc.ListMembers(ctx, authz.Identity{UserID: 100}, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, authz.RoleManager, members[0].Role)

	_, err = svc.Create(ctx, authz.Identity{UserID: 999}, 10, "Rogue", "")
	require.ErrorIs(t, err, authz.ErrDenied)
}

func TestRemoveLastManagerRejected(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleMember))

	// User 100 is the only manager.
	err = svc.RemoveMember(ctx, admin, team.ID, 100)
	require.ErrorIs(t, err, teams.ErrLastManager)

	// The failed removal rolls back; the membership stays active.
	members, err := svc.ListMembers(ctx, admin, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Removing a plain member is fine.
	require.NoError(t, svc.RemoveMember(ctx, admin, team.ID, 200))
}

func TestRemoveNonLastManagerSucceeds(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleManager))

	require.NoError(t, svc.RemoveMember(ctx, admin, team.ID, 200))
}

func TestDemoteLastManagerRejected(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)

	err = svc.ChangeRole(ctx, admin, team.ID, 100, authz.RoleMember)
	require.ErrorIs(t, err, teams.ErrLastManager)

	// With a second manager present the demotion goes through.
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleManager))
	require.NoError(t, svc.ChangeRole(ctx, admin, team.ID, 100, authz.RoleMember))
}

func TestReAddLastManagerAsMemberRejected(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)

	// AddMember upserts the role on the existing active row, so re-adding
	// the sole manager as a plain member is a demotion in disguise.
	err = svc.AddMember(ctx, admin, team.ID, 100, authz.RoleMember)
	require.ErrorIs(t, err, teams.ErrLastManager)

	// The rejected upsert rolls back; the manager row is intact.
	count, err := repo.CountManagers(ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// With a second manager present the same call goes through.
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleManager))
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 100, authz.RoleMember))
}

func TestReAddRestoresSoftDeletedMembership(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleMember))
	require.NoError(t, svc.RemoveMember(ctx, admin, team.ID, 200))

	// While removed, the member has no access.
	_, err = svc.Get(ctx, authz.Identity{UserID: 200}, team.ID)
	require.ErrorIs(t, err, authz.ErrDenied)

	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleManager))

	// The original row is reused with the new role, never duplicated.
	entries := 0
	for _, m := range repo.members {
		if m.teamID == team.ID && m.userID == 200 {
			entries++
			require.Equal(t, authz.RoleManager, m.role)
			require.False(t, m.deleted)
		}
	}
	require.Equal(t, 1, entries)
}

func TestAddMemberRequiresManagerTier(t *testing.T) {
	repo := newMemoryTeamRepo()
	repo.addOrgAdmin(100, 10)
	svc := newTeamService(repo)
	ctx := context.Background()
	admin := authz.Identity{UserID: 100}

	team, err := svc.Create(ctx, admin, 10, "Board", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(ctx, admin, team.ID, 200, authz.RoleMember))

	err = svc.AddMember(ctx, authz.Identity{UserID: 200}, team.ID, 300, authz.RoleMember)
	require.ErrorIs(t, err, authz.ErrDenied)
}
