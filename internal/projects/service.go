package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps project business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a project.
type Input struct {
	RockID      *int64
	Name        string
	Description string
	Status      Status
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("projects: name required")
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return fmt.Errorf("projects: unknown status %q", in.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	projectID, err := s.repo.Create(ctx, Project{
		TeamID:      teamID,
		RockID:      in.RockID,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.record(ctx, id, "project.create", projectID, teamID)
	return s.repo.Get(ctx, projectID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, projectID int64) (*Project, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, p.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Project, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, projectID int64, in Input) (*Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	p, err := s.authorize(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	p.RockID = in.RockID
	p.Name = in.Name
	p.Description = in.Description
	p.Status = in.Status
	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, err
	}
	s.record(ctx, id, "project.update", projectID, p.TeamID)
	return s.repo.Get(ctx, projectID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, projectID int64) error {
	p, err := s.authorize(ctx, id, projectID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, projectID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "project.delete", projectID, p.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, projectID int64) (*Project, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, p.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, p.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, projectID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "project",
		EntityID: fmt.Sprintf("%d", projectID),
		TeamID:   teamID,
	})
}
