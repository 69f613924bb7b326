package milestones

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps milestone business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a milestone.
type Input struct {
	IssueID   *int64
	Title     string
	DueDate   time.Time
	Completed bool
}

func (in *Input) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return errors.New("milestones: title required")
	}
	if in.DueDate.IsZero() {
		return errors.New("milestones: due date required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Milestone, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	milestoneID, err := s.repo.Create(ctx, Milestone{
		TeamID:    teamID,
		IssueID:   in.IssueID,
		Title:     in.Title,
		DueDate:   in.DueDate,
		Completed: in.Completed,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	s.record(ctx, id, "milestone.create", milestoneID, teamID)
	return s.repo.Get(ctx, milestoneID)
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Milestone, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, milestoneID int64, in Input) (*Milestone, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	m, err := s.authorize(ctx, id, milestoneID)
	if err != nil {
		return nil, err
	}
	m.IssueID = in.IssueID
	m.Title = in.Title
	m.DueDate = in.DueDate
	m.Completed = in.Completed
	if err := s.repo.Update(ctx, *m); err != nil {
		return nil, err
	}
	s.record(ctx, id, "milestone.update", milestoneID, m.TeamID)
	return s.repo.Get(ctx, milestoneID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, milestoneID int64) error {
	m, err := s.authorize(ctx, id, milestoneID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, milestoneID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "milestone.delete", milestoneID, m.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, milestoneID int64) (*Milestone, error) {
	m, err := s.repo.Get(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, m.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, m.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, milestoneID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "milestone",
		EntityID: fmt.Sprintf("%d", milestoneID),
		TeamID:   teamID,
	})
}
