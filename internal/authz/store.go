package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides the lookups the access layer needs. Implementations must
// exclude soft-deleted rows from every query.
type Store interface {
	// FindTeam returns the team or ErrNotFound.
	FindTeam(ctx context.Context, teamID int64) (Team, error)
	// FindMembership returns the user's non-deleted membership, or nil
	// when none exists.
	FindMembership(ctx context.Context, userID, teamID int64) (*Membership, error)
	// IsOrgAdmin reports whether the user holds a non-deleted admin grant
	// for the org.
	IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error)
	// FirstTeamFor returns the user's oldest team by membership, or nil
	// when the user belongs to no team.
	FirstTeamFor(ctx context.Context, userID int64) (*Team, error)
}

// PGStore implements Store against PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// FindTeam fetches a non-deleted team row.
func (s *PGStore) FindTeam(ctx context.Context, teamID int64) (Team, error) {
	var team Team
	err := s.pool.QueryRow(ctx,
		`SELECT id, org_id, name FROM teams WHERE id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&team.ID, &team.OrgID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrNotFound
		}
		return Team{}, err
	}
	return team, nil
}

// FindMembership fetches the user's non-deleted membership for the team.
func (s *PGStore) FindMembership(ctx context.Context, userID, teamID int64) (*Membership, error) {
	var m Membership
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, team_id, role FROM team_memberships
		 WHERE user_id = $1 AND team_id = $2 AND deleted_at IS NULL`,
		userID, teamID,
	).Scan(&m.UserID, &m.TeamID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// IsOrgAdmin checks the org_admins join table directly.
func (s *PGStore) IsOrgAdmin(ctx context.Context, userID, orgID int64) (bool, error) {
	var isAdmin bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM org_admins
			WHERE user_id = $1 AND org_id = $2 AND deleted_at IS NULL
		 )`,
		userID, orgID,
	).Scan(&isAdmin)
	if err != nil {
		return false, err
	}
	return isAdmin, nil
}

// FirstTeamFor returns the user's oldest joined team.
func (s *PGStore) FirstTeamFor(ctx context.Context, userID int64) (*Team, error) {
	var team Team
	err := s.pool.QueryRow(ctx,
		`SELECT t.id, t.org_id, t.name
		 FROM team_memberships m
		 JOIN teams t ON t.id = m.team_id AND t.deleted_at IS NULL
		 WHERE m.user_id = $1 AND m.deleted_at IS NULL
		 ORDER BY m.created_at, t.id
		 LIMIT 1`,
		userID,
	).Scan(&team.ID, &team.OrgID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

var _ Store = (*PGStore)(nil)
