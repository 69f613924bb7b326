package engagements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/crm/customers"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps engagement business rules. Engagements inherit their team
// from the customer they belong to.
type Service struct {
	repo      Repository
	customers customers.Repository
	authz     *authz.Service
	audit     *shared.AuditLogger
}

func NewService(repo Repository, customerRepo customers.Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, customers: customerRepo, authz: authzService, audit: audit}
}

// Input carries the editable fields of an engagement.
type Input struct {
	Title  string
	Notes  string
	Status Status
}

func (in *Input) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return errors.New("engagements: title required")
	}
	if in.Status == "" {
		in.Status = StatusLead
	}
	if !in.Status.Valid() {
		return fmt.Errorf("engagements: unknown status %q", in.Status)
	}
	return nil
}

// Create records an engagement against a customer the caller can access.
func (s *Service) Create(ctx context.Context, id authz.Identity, customerID int64, in Input) (*Engagement, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, customer.TeamID); err != nil {
		return nil, err
	}
	engagementID, err := s.repo.Create(ctx, Engagement{
		TeamID:     customer.TeamID,
		CustomerID: customerID,
		Title:      in.Title,
		Notes:      in.Notes,
		Status:     in.Status,
		CreatedBy:  id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create engagement: %w", err)
	}
	s.record(ctx, id, "engagement.create", engagementID, customer.TeamID)
	return s.repo.Get(ctx, engagementID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, engagementID int64) (*Engagement, error) {
	e, err := s.repo.Get(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, e.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Engagement, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

func (s *Service) ListForCustomer(ctx context.Context, id authz.Identity, customerID int64) ([]Engagement, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, customer.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForCustomer(ctx, customerID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, engagementID int64, in Input) (*Engagement, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	e, err := s.authorize(ctx, id, engagementID)
	if err != nil {
		return nil, err
	}
	e.Title = in.Title
	e.Notes = in.Notes
	e.Status = in.Status
	if err := s.repo.Update(ctx, *e); err != nil {
		return nil, err
	}
	s.record(ctx, id, "engagement.update", engagementID, e.TeamID)
	return s.repo.Get(ctx, engagementID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, engagementID int64) error {
	e, err := s.authorize(ctx, id, engagementID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, engagementID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "engagement.delete", engagementID, e.TeamID)
	return nil
}

// CanEdit reports whether the caller could mutate the engagement. It never
// returns an error: any denial, missing row, or lookup failure reads as
// false. UI callers use it to decide whether to render edit affordances.
func (s *Service) CanEdit(ctx context.Context, id authz.Identity, engagementID int64) bool {
	_, err := s.authorize(ctx, id, engagementID)
	return err == nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, engagementID int64) (*Engagement, error) {
	e, err := s.repo.Get(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, e.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, e.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, engagementID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "engagement",
		EntityID: fmt.Sprintf("%d", engagementID),
		TeamID:   teamID,
	})
}
