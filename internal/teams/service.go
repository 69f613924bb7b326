package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// ErrLastManager rejects any mutation that would leave a team without an
// active manager membership. Org admins do not count; the invariant is about
// explicit manager rows.
var ErrLastManager = errors.New("teams: a team must retain at least one manager")

// Service wraps team and membership business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Create registers a team under an org. Org-admin only; the creator joins as
// the team's first manager so the manager invariant holds from birth.
func (s *Service) Create(ctx context.Context, id authz.Identity, orgID int64, name, description string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("teams: name required")
	}
	if err := s.authz.RequireOrgAdmin(ctx, id, orgID); err != nil {
		return nil, err
	}

	var teamID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		teamID, err = repo.Create(ctx, orgID, name, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		return repo.UpsertMember(ctx, teamID, id.UserID, authz.RoleManager)
	})
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}

	s.record(ctx, id, "team.create", teamID)
	return s.repo.Get(ctx, teamID)
}

// Update renames a team. Manager tier required.
func (s *Service) Update(ctx context.Context, id authz.Identity, teamID int64, name, description string) (*Team, error) {
	if _, err := s.authz.RequireRole(ctx, id, teamID, authz.RoleManager); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("teams: name required")
	}
	if err := s.repo.Update(ctx, teamID, name, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	s.record(ctx, id, "team.update", teamID)
	return s.repo.Get(ctx, teamID)
}

// Get returns the team for callers with baseline access.
func (s *Service) Get(ctx context.Context, id authz.Identity, teamID int64) (*Team, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, teamID)
}

// ListMine returns the caller's teams by membership.
func (s *Service) ListMine(ctx context.Context, id authz.Identity) ([]Team, error) {
	return s.repo.ListForUser(ctx, id.UserID)
}

// ListForOrg returns an org's teams. Org-admin only.
func (s *Service) ListForOrg(ctx context.Context, id authz.Identity, orgID int64) ([]Team, error) {
	if err := s.authz.RequireOrgAdmin(ctx, id, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListForOrg(ctx, orgID)
}

// ListMembers returns a team's active memberships for callers with baseline
// access.
func (s *Service) ListMembers(ctx context.Context, id authz.Identity, teamID int64) ([]Membership, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, teamID)
}

// AddMember adds a user to a team, restoring a soft-deleted membership when
// one exists. Manager tier required. The upsert also re-sets the role on an
// existing active row, so it runs under the same manager-count guard as
// ChangeRole: re-adding the sole manager as a plain member must not strip the
// team of its last manager.
func (s *Service) AddMember(ctx context.Context, id authz.Identity, teamID, userID int64, role authz.Role) error {
	if !role.Valid() {
		return fmt.Errorf("teams: unknown role %q", role)
	}
	if _, err := s.authz.RequireRole(ctx, id, teamID, authz.RoleManager); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpsertMember(ctx, teamID, userID, role); err != nil {
			return err
		}
		count, err := repo.CountManagers(ctx, teamID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrLastManager
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLastManager) {
			return err
		}
		return fmt.Errorf("add member: %w", err)
	}
	s.record(ctx, id, "team.member.add", teamID)
	return nil
}

// ChangeRole updates a member's tier. Demoting the only manager is rejected.
func (s *Service) ChangeRole(ctx context.Context, id authz.Identity, teamID, userID int64, role authz.Role) error {
	if !role.Valid() {
		return fmt.Errorf("teams: unknown role %q", role)
	}
	if _, err := s.authz.RequireRole(ctx, id, teamID, authz.RoleManager); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		updated, err := repo.UpdateMemberRole(ctx, teamID, userID, role)
		if err != nil {
			return err
		}
		if !updated {
			return ErrNotFound
		}
		count, err := repo.CountManagers(ctx, teamID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrLastManager
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, id, "team.member.role", teamID)
	return nil
}

// RemoveMember soft-deletes a membership, recording who removed it. Removing
// the team's last manager is rejected.
func (s *Service) RemoveMember(ctx context.Context, id authz.Identity, teamID, userID int64) error {
	if _, err := s.authz.RequireRole(ctx, id, teamID, authz.RoleManager); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		removed, err := repo.SoftDeleteMember(ctx, teamID, userID, id.UserID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFound
		}
		count, err := repo.CountManagers(ctx, teamID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrLastManager
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, id, "team.member.remove", teamID)
	return nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "team",
		EntityID: fmt.Sprintf("%d", teamID),
		TeamID:   teamID,
	})
}
