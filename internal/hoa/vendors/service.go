package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps vendor business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a vendor.
type Input struct {
	Name    string
	Contact string
	Notes   string
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("vendors: name required")
	}
	in.Contact = strings.TrimSpace(in.Contact)
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Vendor, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	vendorID, err := s.repo.Create(ctx, Vendor{
		TeamID:    teamID,
		Name:      in.Name,
		Contact:   in.Contact,
		Notes:     in.Notes,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}
	s.record(ctx, id, "vendor.create", vendorID, teamID)
	return s.repo.Get(ctx, vendorID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, vendorID int64) (*Vendor, error) {
	v, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, v.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Vendor, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, vendorID int64, in Input) (*Vendor, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	v, err := s.authorize(ctx, id, vendorID)
	if err != nil {
		return nil, err
	}
	v.Name = in.Name
	v.Contact = in.Contact
	v.Notes = in.Notes
	if err := s.repo.Update(ctx, *v); err != nil {
		return nil, err
	}
	s.record(ctx, id, "vendor.update", vendorID, v.TeamID)
	return s.repo.Get(ctx, vendorID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, vendorID int64) error {
	v, err := s.authorize(ctx, id, vendorID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, vendorID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "vendor.delete", vendorID, v.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, vendorID int64) (*Vendor, error) {
	v, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, v.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, v.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, vendorID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "vendor",
		EntityID: fmt.Sprintf("%d", vendorID),
		TeamID:   teamID,
	})
}
