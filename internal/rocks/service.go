package rocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps rock business rules. Mutations are owner-or-manager: the
// creator may edit their own rock, anyone else needs the manager tier.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Create adds a rock to a team the caller can access.
func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, title, quarter string, status Status) (*Rock, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("rocks: title required")
	}
	if status == "" {
		status = StatusOnTrack
	}
	if !status.Valid() {
		return nil, fmt.Errorf("rocks: unknown status %q", status)
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	rockID, err := s.repo.Create(ctx, Rock{
		TeamID:    teamID,
		Title:     title,
		Quarter:   strings.TrimSpace(quarter),
		Status:    status,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create rock: %w", err)
	}
	s.record(ctx, id, "rock.create", rockID, teamID)
	return s.repo.Get(ctx, rockID)
}

// Get returns a rock. Denials are reported as not-found so callers cannot
// probe for rocks in teams they do not belong to.
func (s *Service) Get(ctx context.Context, id authz.Identity, rockID int64) (*Rock, error) {
	rock, err := s.repo.Get(ctx, rockID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, rock.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rock, nil
}

// ListForTeam returns a team's rocks, optionally filtered by quarter.
// Denial reads as an empty result.
func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64, quarter string) ([]Rock, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID, quarter)
}

// Update mutates a rock's editable fields.
func (s *Service) Update(ctx context.Context, id authz.Identity, rockID int64, title, quarter string, status Status, progress int) (*Rock, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("rocks: title required")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("rocks: unknown status %q", status)
	}
	if progress < 0 || progress > 100 {
		return nil, errors.New("rocks: progress must be between 0 and 100")
	}
	rock, err := s.authorize(ctx, id, rockID)
	if err != nil {
		return nil, err
	}
	rock.Title = title
	rock.Quarter = strings.TrimSpace(quarter)
	rock.Status = status
	rock.Progress = progress
	if err := s.repo.Update(ctx, *rock); err != nil {
		return nil, err
	}
	s.record(ctx, id, "rock.update", rockID, rock.TeamID)
	return s.repo.Get(ctx, rockID)
}

// Delete soft-deletes a rock, recording who deleted it.
func (s *Service) Delete(ctx context.Context, id authz.Identity, rockID int64) error {
	rock, err := s.authorize(ctx, id, rockID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, rockID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "rock.delete", rockID, rock.TeamID)
	return nil
}

// authorize resolves the rock's owning team and applies the
// owner-or-manager rule for mutations.
func (s *Service) authorize(ctx context.Context, id authz.Identity, rockID int64) (*Rock, error) {
	rock, err := s.repo.Get(ctx, rockID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, rock.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, rock.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return rock, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, rockID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "rock",
		EntityID: fmt.Sprintf("%d", rockID),
		TeamID:   teamID,
	})
}
