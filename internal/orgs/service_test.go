package orgs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/orgs"
)

type adminRow struct {
	orgID   int64
	userID  int64
	deleted bool
}

type memoryOrgRepo struct {
	orgs   map[int64]orgs.Org
	admins []adminRow
	nextID int64
}

func newMemoryOrgRepo() *memoryOrgRepo {
	return &memoryOrgRepo{orgs: make(map[int64]orgs.Org)}
}

func (r *memoryOrgRepo) WithTx(ctx context.Context, fn func(context.Context, orgs.Repository) error) error {
	// Snapshot admins so an error restores the pre-tx state, mirroring a
	// rollback.
	snapshot := make([]adminRow, len(r.admins))
	copy(snapshot, r.admins)
	if err := fn(ctx, r); err != nil {
		r.admins = snapshot
		return err
	}
	return nil
}

func (r *memoryOrgRepo) Get(ctx context.Context, id int64) (*orgs.Org, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, orgs.ErrNotFound
	}
	return &org, nil
}

func (r *memoryOrgRepo) ListFor(ctx context.Context, userID int64) ([]orgs.Org, error) {
	var out []orgs.Org
	for _, a := range r.admins {
		if a.userID == userID && !a.deleted {
			out = append(out, r.orgs[a.orgID])
		}
	}
	return out, nil
}

func (r *memoryOrgRepo) Create(ctx context.Context, name, slug string) (int64, error) {
	for _, o := range r.orgs {
		if o.Slug == slug {
			return 0, orgs.ErrAlreadyExists
		}
	}
	r.nextID++
	r.orgs[r.nextID] = orgs.Org{ID: r.nextID, Name: name, Slug: slug, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	return r.nextID, nil
}

func (r *memoryOrgRepo) ListAdmins(ctx context.Context, orgID int64) ([]orgs.AdminGrant, error) {
	var out []orgs.AdminGrant
	for _, a := range r.admins {
		if a.orgID == orgID && !a.deleted {
			out = append(out, orgs.AdminGrant{OrgID: a.orgID, UserID: a.userID})
		}
	}
	return out, nil
}

func (r *memoryOrgRepo) CountAdmins(ctx context.Context, orgID int64) (int, error) {
	count := 0
	for _, a := range r.admins {
		if a.orgID == orgID && !a.deleted {
			count++
		}
	}
	return count, nil
}

func (r *memoryOrgRepo) UpsertAdmin(ctx context.Context, orgID, userID, grantedBy int64) error {
	for i := range r.admins {
		if r.admins[i].orgID == orgID && r.admins[i].userID == userID {
			r.admins[i].deleted = false
			return nil
		}
	}
	r.admins = append(r.admins, adminRow{orgID: orgID, userID: userID})
	return nil
}

func (r *memoryOrgRepo) SoftDeleteAdmin(ctx context.Context, orgID, userID, deletedBy int64) (bool, error) {
	for i := range r.admins {
		if r.admins[i].orgID == orgID && r.admins[i].userID == userID && !r.admins[i].deleted {
			r.admins[i].deleted = true
			return true, nil
		}
	}
	return false, nil
}

type orgAuthzStore struct {
	repo *memoryOrgRepo
}

func (s orgAuthzStore) FindTeam(ctx context.Context, teamID int64) (authz.Team, error) {
	return authz.Team{}, authz.ErrNotFound
}

func (s orgAuthzStore) FindMembership(ctx context.Context, userID, teamID int64) (*authz.Membership, error) {
	return nil, nil
}

func (s orgAuthzStore) IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error) {
	for _, a := range s.repo.admins {
		if a.orgID == orgID && a.userID == userID && !a.deleted {
			return true, nil
		}
	}
	return false, nil
}

func (s orgAuthzStore) FirstTeamFor(ctx context.Context, userID int64) (*authz.Team, error) {
	return nil, nil
}

func newOrgService(repo *memoryOrgRepo) *orgs.Service {
	return orgs.NewService(repo, authz.NewService(orgAuthzStore{repo: repo}), nil)
}

func TestCreateOrgMakesCreatorAdmin(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := newOrgService(repo)

	org, err := svc.Create(context.Background(), authz.Identity{UserID: 100}, "Sunny Pines HOA")
	require.NoError(t, err)
	require.Equal(t, "sunny-pines-hoa", org.Slug)

	admins, err := svc.ListAdmins(context.Background(), authz.Identity{UserID: 100}, org.ID)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, int64(100), admins[0].UserID)
}

func TestRevokeLastAdminRejected(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := newOrgService(repo)
	ctx := context.Background()

	org, err := svc.Create(ctx, authz.Identity{UserID: 100}, "Acme")
	require.NoError(t, err)

	err = svc.RevokeAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 100)
	require.ErrorIs(t, err, orgs.ErrLastAdmin)

	// The failed removal must leave the grant intact.
	admins, err := svc.ListAdmins(ctx, authz.Identity{UserID: 100}, org.ID)
	require.NoError(t, err)
	require.Len(t, admins, 1)
}

func TestRevokeNonLastAdminSucceeds(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := newOrgService(repo)
	ctx := context.Background()

	org, err := svc.Create(ctx, authz.Identity{UserID: 100}, "Acme")
	require.NoError(t, err)
	require.NoError(t, svc.GrantAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 200))

	require.NoError(t, svc.RevokeAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 200))

	admins, err := svc.ListAdmins(ctx, authz.Identity{UserID: 100}, org.ID)
	require.NoError(t, err)
	require.Len(t, admins, 1)
}

func TestGrantAdminRestoresRevokedGrant(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := newOrgService(repo)
	ctx := context.Background()

	org, err := svc.Create(ctx, authz.Identity{UserID: 100}, "Acme")
	require.NoError(t, err)
	require.NoError(t, svc.GrantAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 200))
	require.NoError(t, svc.RevokeAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 200))

	require.NoError(t, svc.GrantAdmin(ctx, authz.Identity{UserID: 100}, org.ID, 200))

	// Restoration reuses the original row; the repo must hold a single
	// entry for the user.
	entries := 0
	for _, a := range repo.admins {
		if a.orgID == org.ID && a.userID == 200 {
			entries++
		}
	}
	require.Equal(t, 1, entries)
}

func TestGrantAdminRequiresAdmin(t *testing.T) {
	repo := newMemoryOrgRepo()
	svc := newOrgService(repo)
	ctx := context.Background()

	org, err := svc.Create(ctx, authz.Identity{UserID: 100}, "Acme")
	require.NoError(t, err)

	err = svc.GrantAdmin(ctx, authz.Identity{UserID: 300}, org.ID, 301)
	require.ErrorIs(t, err, authz.ErrDenied)
}
