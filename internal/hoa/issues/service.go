package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps issue business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of an issue.
type Input struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
}

func (in *Input) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return errors.New("issues: title required")
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if !in.Status.Valid() {
		return fmt.Errorf("issues: unknown status %q", in.Status)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("issues: unknown priority %q", in.Priority)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Issue, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	issueID, err := s.repo.Create(ctx, Issue{
		TeamID:      teamID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	s.record(ctx, id, "issue.create", issueID, teamID)
	return s.repo.Get(ctx, issueID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, issueID int64) (*Issue, error) {
	i, err := s.repo.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, i.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64, status Status) ([]Issue, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID, status)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, issueID int64, in Input) (*Issue, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	i, err := s.authorize(ctx, id, issueID)
	if err != nil {
		return nil, err
	}
	i.Title = in.Title
	i.Description = in.Description
	i.Status = in.Status
	i.Priority = in.Priority
	if err := s.repo.Update(ctx, *i); err != nil {
		return nil, err
	}
	s.record(ctx, id, "issue.update", issueID, i.TeamID)
	return s.repo.Get(ctx, issueID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, issueID int64) error {
	i, err := s.authorize(ctx, id, issueID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, issueID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "issue.delete", issueID, i.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, issueID int64) (*Issue, error) {
	i, err := s.repo.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, i.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, i.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, issueID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "issue",
		EntityID: fmt.Sprintf("%d", issueID),
		TeamID:   teamID,
	})
}
