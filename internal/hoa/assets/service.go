package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps asset business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of an asset.
type Input struct {
	Name            string
	PurchaseDate    *time.Time
	ReplacementDate *time.Time
	Notes           string
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("assets: name required")
	}
	if in.PurchaseDate != nil && in.ReplacementDate != nil && in.ReplacementDate.Before(*in.PurchaseDate) {
		return errors.New("assets: replacement date precedes purchase date")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Asset, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	assetID, err := s.repo.Create(ctx, Asset{
		TeamID:          teamID,
		Name:            in.Name,
		PurchaseDate:    in.PurchaseDate,
		ReplacementDate: in.ReplacementDate,
		Notes:           in.Notes,
		CreatedBy:       id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	s.record(ctx, id, "asset.create", assetID, teamID)
	return s.repo.Get(ctx, assetID)
}

func (s *Service) Get(ctx context.Context, id authz.Identity, assetID int64) (*Asset, error) {
	a, err := s.repo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, a.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64) ([]Asset, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, assetID int64, in Input) (*Asset, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	a, err := s.authorize(ctx, id, assetID)
	if err != nil {
		return nil, err
	}
	a.Name = in.Name
	a.PurchaseDate = in.PurchaseDate
	a.ReplacementDate = in.ReplacementDate
	a.Notes = in.Notes
	if err := s.repo.Update(ctx, *a); err != nil {
		return nil, err
	}
	s.record(ctx, id, "asset.update", assetID, a.TeamID)
	return s.repo.Get(ctx, assetID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, assetID int64) error {
	a, err := s.authorize(ctx, id, assetID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, assetID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "asset.delete", assetID, a.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, assetID int64) (*Asset, error) {
	a, err := s.repo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, a.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, a.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, assetID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "asset",
		EntityID: fmt.Sprintf("%d", assetID),
		TeamID:   teamID,
	})
}
