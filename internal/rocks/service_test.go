package rocks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/rocks"
)

type memoryRockRepo struct {
	rocks  map[int64]rocks.Rock
	nextID int64
}

func newMemoryRockRepo() *memoryRockRepo {
	return &memoryRockRepo{rocks: make(map[int64]rocks.Rock)}
}

func (r *memoryRockRepo) Get(ctx context.Context, id int64) (*rocks.Rock, error) {
	rock, ok := r.rocks[id]
	if !ok || rock.DeletedAt != nil {
		return nil, rocks.ErrNotFound
	}
	return &rock, nil
}

func (r *memoryRockRepo) ListForTeam(ctx context.Context, teamID int64, quarter string) ([]rocks.Rock, error) {
	var out []rocks.Rock
	for _, rock := range r.rocks {
		if rock.TeamID != teamID || rock.DeletedAt != nil {
			continue
		}
		if quarter != "" && rock.Quarter != quarter {
			continue
		}
		out = append(out, rock)
	}
	return out, nil
}

func (r *memoryRockRepo) Create(ctx context.Context, rock rocks.Rock) (int64, error) {
	r.nextID++
	rock.ID = r.nextID
	rock.CreatedAt = time.Now()
	rock.UpdatedAt = time.Now()
	r.rocks[rock.ID] = rock
	return rock.ID, nil
}

func (r *memoryRockRepo) Update(ctx context.Context, rock rocks.Rock) error {
	current, ok := r.rocks[rock.ID]
	if !ok || current.DeletedAt != nil {
		return rocks.ErrNotFound
	}
	current.Title = rock.Title
	current.Quarter = rock.Quarter
	current.Status = rock.Status
	current.Progress = rock.Progress
	r.rocks[rock.ID] = current
	return nil
}

func (r *memoryRockRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	rock, ok := r.rocks[id]
	if !ok || rock.DeletedAt != nil {
		return rocks.ErrNotFound
	}
	now := time.Now()
	rock.DeletedAt = &now
	rock.DeletedBy = &deletedBy
	r.rocks[id] = rock
	return nil
}

func (r *memoryRockRepo) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	count := 0
	for _, rock := range r.rocks {
		if rock.TeamID == teamID && rock.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

// fixedStore is a canned access-control store: team 1 belongs to org 10,
// user 100 is a member, user 200 a manager, user 300 an org admin with no
// membership.
type fixedStore struct{}

func (fixedStore) FindTeam(ctx context.Context, teamID int64) (authz.Team, error) {
	if teamID != 1 {
		return authz.Team{}, authz.ErrNotFound
	}
	return authz.Team{ID: 1, OrgID: 10, Name: "Board"}, nil
}

func (fixedStore) FindMembership(ctx context.Context, userID, teamID int64) (*authz.Membership, error) {
	switch userID {
	case 100:
		return &authz.Membership{UserID: 100, TeamID: teamID, Role: authz.RoleMember}, nil
	case 200:
		return &authz.Membership{UserID: 200, TeamID: teamID, Role: authz.RoleManager}, nil
	}
	return nil, nil
}

func (fixedStore) IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error) {
	return userID == 300 && orgID == 10, nil
}

func (fixedStore) FirstTeamFor(ctx context.Context, userID int64) (*authz.Team, error) {
	return nil, nil
}

func newRockService(repo rocks.Repository) *rocks.Service {
	return rocks.NewService(repo, authz.NewService(fixedStore{}), nil)
}

func TestOwnerMayEditOwnRock(t *testing.T) {
	repo := newMemoryRockRepo()
	svc := newRockService(repo)
	ctx := context.Background()
	owner := authz.Identity{UserID: 100}

	rock, err := svc.Create(ctx, owner, 1, "Launch billing", "2026-Q3", "")
	require.NoError(t, err)
	require.Equal(t, rocks.StatusOnTrack, rock.Status)

	updated, err := svc.Update(ctx, owner, rock.ID, "Launch billing", "2026-Q3", rocks.StatusDone, 100)
	require.NoError(t, err)
	require.Equal(t, rocks.StatusDone, updated.Status)
	require.Equal(t, 100, updated.Progress)
}

func TestNonOwnerMemberCannotEdit(t *testing.T) {
	repo := newMemoryRockRepo()
	svc := newRockService(repo)
	ctx := context.Background()

	rock, err := svc.Create(ctx, authz.Identity{UserID: 200}, 1, "Renovate lobby", "2026-Q3", "")
	require.NoError(t, err)

	// User 100 has baseline access but neither owns the rock nor manages
	// the team.
	_, err = svc.Update(ctx, authz.Identity{UserID: 100}, rock.ID, "Hijacked", "2026-Q3", rocks.StatusDropped, 0)
	require.ErrorIs(t, err, authz.ErrDenied)

	err = svc.Delete(ctx, authz.Identity{UserID: 100}, rock.ID)
	require.ErrorIs(t, err, authz.ErrDenied)
}

func TestManagerMayEditAnyRock(t *testing.T) {
	repo := newMemoryRockRepo()
	svc := newRockService(repo)
	ctx := context.Background()

	rock, err := svc.Create(ctx, authz.Identity{UserID: 100}, 1, "Member rock", "2026-Q3", "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, authz.Identity{UserID: 200}, rock.ID, "Member rock", "2026-Q3", rocks.StatusOffTrack, 40)
	require.NoError(t, err)

	// Org admin bypasses team roles entirely.
	require.NoError(t, svc.Delete(ctx, authz.Identity{UserID: 300}, rock.ID))
}

func TestReadsHideInaccessibleRocks(t *testing.T) {
	repo := newMemoryRockRepo()
	svc := newRockService(repo)
	ctx := context.Background()

	rock, err := svc.Create(ctx, authz.Identity{UserID: 100}, 1, "Secret plan", "2026-Q3", "")
	require.NoError(t, err)

	// User 999 has no relationship with team 1: the rock reads as absent,
	// the listing as empty.
	_, err = svc.Get(ctx, authz.Identity{UserID: 999}, rock.ID)
	require.ErrorIs(t, err, rocks.ErrNotFound)

	list, err := svc.ListForTeam(ctx, authz.Identity{UserID: 999}, 1, "")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDeleteRecordsActor(t *testing.T) {
	repo := newMemoryRockRepo()
	svc := newRockService(repo)
	ctx := context.Background()
	owner := authz.Identity{UserID: 100}

	rock, err := svc.Create(ctx, owner, 1, "Short lived", "2026-Q3", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, rock.ID))

	stored := repo.rocks[rock.ID]
	require.NotNil(t, stored.DeletedAt)
	require.Equal(t, int64(100), *stored.DeletedBy)

	_, err = svc.Get(ctx, owner, rock.ID)
	require.ErrorIs(t, err, rocks.ErrNotFound)
}
