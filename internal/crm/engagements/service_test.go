package engagements_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/crm/customers"
	"github.com/thejar/jar/internal/crm/engagements"
)

type memoryCustomerRepo struct {
	customers map[int64]customers.Customer
}

func (r *memoryCustomerRepo) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, customers.ErrNotFound
	}
	return &c, nil
}

func (r *memoryCustomerRepo) ListForTeam(ctx context.Context, teamID int64) ([]customers.Customer, error) {
	return nil, nil
}

func (r *memoryCustomerRepo) ListPageForTeam(ctx context.Context, teamID int64, limit, offset int) ([]customers.Customer, error) {
	return nil, nil
}

func (r *memoryCustomerRepo) Create(ctx context.Context, c customers.Customer) (int64, error) {
	return 0, nil
}

func (r *memoryCustomerRepo) Update(ctx context.Context, c customers.Customer) error { return nil }

func (r *memoryCustomerRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error { return nil }

func (r *memoryCustomerRepo) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	return 0, nil
}

type memoryEngagementRepo struct {
	engagements map[int64]engagements.Engagement
	nextID      int64
}

func (r *memoryEngagementRepo) Get(ctx context.Context, id int64) (*engagements.Engagement, error) {
	e, ok := r.engagements[id]
	if !ok || e.DeletedAt != nil {
		return nil, engagements.ErrNotFound
	}
	return &e, nil
}

func (r *memoryEngagementRepo) ListForTeam(ctx context.Context, teamID int64) ([]engagements.Engagement, error) {
	var out []engagements.Engagement
	for _, e := range r.engagements {
		if e.TeamID == teamID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEngagementRepo) ListForCustomer(ctx context.Context, customerID int64) ([]engagements.Engagement, error) {
	var out []engagements.Engagement
	for _, e := range r.engagements {
		if e.CustomerID == customerID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEngagementRepo) Create(ctx context.Context, e engagements.Engagement) (int64, error) {
	r.nextID++
	e.ID = r.nextID
	r.engagements[e.ID] = e
	return e.ID, nil
}

func (r *memoryEngagementRepo) Update(ctx context.Context, e engagements.Engagement) error {
	current, ok := r.engagements[e.ID]
	if !ok || current.DeletedAt != nil {
		return engagements.ErrNotFound
	}
	current.Title = e.Title
	current.Notes = e.Notes
	current.Status = e.Status
	r.engagements[e.ID] = current
	return nil
}

func (r *memoryEngagementRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	e, ok := r.engagements[id]
	if !ok || e.DeletedAt != nil {
		return engagements.ErrNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	e.DeletedBy = &deletedBy
	r.engagements[id] = e
	return nil
}

func (r *memoryEngagementRepo) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	return 0, nil
}

// fixedStore: team 1 in org 10; user 100 member, user 200 manager.
type fixedStore struct{}

func (fixedStore) FindTeam(ctx context.Context, teamID int64) (authz.Team, error) {
	if teamID != 1 {
		return authz.Team{}, authz.ErrNotFound
	}
	return authz.Team{ID: 1, OrgID: 10, Name: "Sales"}, nil
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
	return false, nil
}

func (fixedStore) FirstTeamFor(ctx context.Context, userID int64) (*authz.Team, error) {
	return nil, nil
}

func newEngagementService() (*engagements.Service, *memoryEngagementRepo) {
	customerRepo := &memoryCustomerRepo{customers: map[int64]customers.Customer{
		5: {ID: 5, TeamID: 1, Name: "Acme Property Group"},
	}}
	repo := &memoryEngagementRepo{engagements: make(map[int64]engagements.Engagement)}
	svc := engagements.NewService(repo, customerRepo, authz.NewService(fixedStore{}), nil)
	return svc, repo
}

func TestEngagementInheritsCustomerTeam(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()

	e, err := svc.Create(ctx, authz.Identity{UserID: 100}, 5, engagements.Input{Title: "Kickoff call"})
	require.NoError(t, err)
	require.Equal(t, int64(1), e.TeamID)
	require.Equal(t, engagements.StatusLead, e.Status)

	// A stranger cannot attach engagements to someone else's customer.
	_, err = svc.Create(ctx, authz.Identity{UserID: 999}, 5, engagements.Input{Title: "Cold call"})
	require.ErrorIs(t, err, authz.ErrDenied)
}

func TestCanEditNeverThrows(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()

	e, err := svc.Create(ctx, authz.Identity{UserID: 100}, 5, engagements.Input{Title: "Renewal"})
	require.NoError(t, err)

	// Owner and manager can edit; a non-owner member and a stranger cannot.
	require.True(t, svc.CanEdit(ctx, authz.Identity{UserID: 100}, e.ID))
	require.True(t, svc.CanEdit(ctx, authz.Identity{UserID: 200}, e.ID))
	require.False(t, svc.CanEdit(ctx, authz.Identity{UserID: 999}, e.ID))

	// Unknown ids and unauthenticated callers read as false, not errors.
	require.False(t, svc.CanEdit(ctx, authz.Identity{UserID: 100}, 424242))
	require.False(t, svc.CanEdit(ctx, authz.Identity{}, e.ID))
}

func TestNonOwnerMemberCannotEditEngagement(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()

	e, err := svc.Create(ctx, authz.Identity{UserID: 200}, 5, engagements.Input{Title: "Site visit"})
	require.NoError(t, err)

	member := authz.Identity{UserID: 100}
	require.False(t, svc.CanEdit(ctx, member, e.ID))
	_, err = svc.Update(ctx, member, e.ID, engagements.Input{Title: "Edited", Status: engagements.StatusActive})
	require.ErrorIs(t, err, authz.ErrDenied)

	// Reads still work for the member.
	got, err := svc.Get(ctx, member, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Site visit", got.Title)
}
