package customers_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/crm/customers"
)

type memoryCustomerRepo struct {
	customers map[int64]customers.Customer
	nextID    int64
}

func newMemoryCustomerRepo() *memoryCustomerRepo {
	return &memoryCustomerRepo{customers: make(map[int64]customers.Customer)}
}

func (r *memoryCustomerRepo) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.DeletedAt != nil {
		return nil, customers.ErrNotFound
	}
	return &c, nil
}

func (r *memoryCustomerRepo) live(teamID int64) []customers.Customer {
	var out []customers.Customer
	for _, c := range r.customers {
		if c.TeamID == teamID && c.DeletedAt == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *memoryCustomerRepo) ListForTeam(ctx context.Context, teamID int64) ([]customers.Customer, error) {
	return r.live(teamID), nil
}

func (r *memoryCustomerRepo) ListPageForTeam(ctx context.Context, teamID int64, limit, offset int) ([]customers.Customer, error) {
	all := r.live(teamID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryCustomerRepo) Create(ctx context.Context, c customers.Customer) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	r.customers[c.ID] = c
	return c.ID, nil
}

func (r *memoryCustomerRepo) Update(ctx context.Context, c customers.Customer) error {
	current, ok := r.customers[c.ID]
	if !ok || current.DeletedAt != nil {
		return customers.ErrNotFound
	}
	current.Name = c.Name
	current.Email = c.Email
	current.Phone = c.Phone
	current.Notes = c.Notes
	r.customers[c.ID] = current
	return nil
}

func (r *memoryCustomerRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	c, ok := r.customers[id]
	if !ok || c.DeletedAt != nil {
		return customers.ErrNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	c.DeletedBy = &deletedBy
	r.customers[id] = c
	return nil
}

func (r *memoryCustomerRepo) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	return len(r.live(teamID)), nil
}

// fixedStore mirrors the canned access-control fixture used across entity
// tests: team 1 in org 10, user 100 member, user 200 manager, user 300 org
// admin without membership.
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

func newCustomerService(repo customers.Repository) *customers.Service {
	return customers.NewService(repo, authz.NewService(fixedStore{}), nil)
}

func TestListPageReturnsMetadata(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := newCustomerService(repo)
	ctx := context.Background()
	member := authz.Identity{UserID: 100}

	names := []string{"Acme", "Borealis", "Cedar", "Dune", "Ember"}
	for _, name := range names {
		_, err := svc.Create(ctx, member, 1, customers.Input{Name: name})
		require.NoError(t, err)
	}

	page, meta, err := svc.ListPage(ctx, member, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "Cedar", page[0].Name)
	require.Equal(t, 5, meta.Total)
	require.Equal(t, 3, meta.TotalPages)
}

func TestListPageHidesInaccessibleTeam(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := newCustomerService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, authz.Identity{UserID: 100}, 1, customers.Input{Name: "Acme"})
	require.NoError(t, err)

	page, meta, err := svc.ListPage(ctx, authz.Identity{UserID: 999}, 1, 1, 20)
	require.NoError(t, err)
	require.Empty(t, page)
	require.Zero(t, meta.Total)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := newCustomerService(newMemoryCustomerRepo())

	_, err := svc.Create(context.Background(), authz.Identity{UserID: 100}, 1, customers.Input{Name: "   "})
	require.Error(t, err)
}
