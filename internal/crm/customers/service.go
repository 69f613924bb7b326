package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps customer business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a customer.
type Input struct {
	Name  string
	Email string
	Phone string
	Notes string
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("customers: name required")
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	customerID, err := s.repo.Create(ctx, Customer{
		TeamID:    teamID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Notes:     in.Notes,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.record(ctx, id, "customer.create", customerID, teamID)
	return s.repo.Get(ctx, customerID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, customerID int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, c.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Customer, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

// ListPage returns one page of a team's customers plus listing metadata.
func (s *Service) ListPage(ctx context.Context, id authz.Identity, teamID int64, page, perPage int) ([]Customer, shared.Pagination, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, shared.NewPagination(page, perPage, 0), nil
		}
		return nil, shared.Pagination{}, err
	}
	total, err := s.repo.CountForTeam(ctx, teamID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListPageForTeam(ctx, teamID, meta.PerPage, (meta.Page-1)*meta.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, meta, nil
}

func (s *Service) Update(ctx context.Context, id authz.Identity, customerID int64, in Input) (*Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.authorize(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Notes = in.Notes
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, err
	}
	s.record(ctx, id, "customer.update", customerID, c.TeamID)
	return s.repo.Get(ctx, customerID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, customerID int64) error {
	c, err := s.authorize(ctx, id, customerID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, customerID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "customer.delete", customerID, c.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, customerID int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, c.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, c.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, customerID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "customer",
		EntityID: fmt.Sprintf("%d", customerID),
		TeamID:   teamID,
	})
}
