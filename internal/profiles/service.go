package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/thejar/jar/internal/authz"
)

// Service wraps profile business rules. Users may only write their own
// profile; reading teammates' profiles requires shared team access.
type Service struct {
	repo  Repository
	authz *authz.Service
}

// NewService constructs a Service.
func NewService(repo Repository, authzService *authz.Service) *Service {
	return &Service{repo: repo, authz: authzService}
}

// Me returns the caller's profile, materialising an empty one for accounts
// that have never saved.
func (s *Service) Me(ctx context.Context, id authz.Identity) (*Profile, error) {
	if id.UserID == 0 {
		return nil, authz.ErrUnauthenticated
	}
	p, err := s.repo.Get(ctx, id.UserID)
	if errors.Is(err, ErrNotFound) {
		return &Profile{UserID: id.UserID}, nil
	}
	return p, err
}

// UpdateMe writes the caller's own profile.
func (s *Service) UpdateMe(ctx context.Context, id authz.Identity, displayName string, weeklyCapacity int) (*Profile, error) {
	if id.UserID == 0 {
		return nil, authz.ErrUnauthenticated
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New("profiles: display name required")
	}
	if weeklyCapacity < 0 {
		return nil, errors.New("profiles: capacity must be non-negative")
	}
	return s.repo.Upsert(ctx, id.UserID, displayName, weeklyCapacity)
}

// ForTeam returns the profiles of a team's members. Baseline team access
// required; the membership list itself comes from the teams module, this
// only hydrates display data for the given ids.
func (s *Service) ForTeam(ctx context.Context, id authz.Identity, teamID int64, memberIDs []int64) ([]Profile, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, nil
	}
	return s.repo.GetMany(ctx, memberIDs)
}
