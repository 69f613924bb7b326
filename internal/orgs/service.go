package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// ErrLastAdmin rejects removal of an org's final admin.
var ErrLastAdmin = errors.New("orgs: an org must retain at least one admin")

// Service wraps org business rules around the access-control layer.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Create registers a new org; the creator becomes its first admin.
func (s *Service) Create(ctx context.Context, id authz.Identity, name string) (*Org, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("orgs: name required")
	}
	slug := shared.Slugify(name)
	if slug == "" {
		return nil, errors.New("orgs: name yields empty slug")
	}

	var orgID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		orgID, err = repo.Create(ctx, name, slug)
		if err != nil {
			return err
		}
		return repo.UpsertAdmin(ctx, orgID, id.UserID, id.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("create org: %w", err)
	}

	s.record(ctx, id, "org.create", orgID)
	return s.repo.Get(ctx, orgID)
}

// Get returns the org when the caller is an admin or a member of one of its
// teams; otherwise ErrNotFound, hiding existence.
func (s *Service) Get(ctx context.Context, id authz.Identity, orgID int64) (*Org, error) {
	visible, err := s.repo.ListFor(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	for i := range visible {
		if visible[i].ID == orgID {
			return &visible[i], nil
		}
	}
	return nil, ErrNotFound
}

// List returns the orgs visible to the caller.
func (s *Service) List(ctx context.Context, id authz.Identity) ([]Org, error) {
	return s.repo.ListFor(ctx, id.UserID)
}

// ListAdmins returns the org's active admin grants. Admin-only.
func (s *Service) ListAdmins(ctx context.Context, id authz.Identity, orgID int64) ([]AdminGrant, error) {
	if err := s.authz.RequireOrgAdmin(ctx, id, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListAdmins(ctx, orgID)
}

// GrantAdmin adds (or restores) an admin grant. Admin-only.
func (s *Service) GrantAdmin(ctx context.Context, id authz.Identity, orgID, userID int64) error {
	if err := s.authz.RequireOrgAdmin(ctx, id, orgID); err != nil {
		return err
	}
	if err := s.repo.UpsertAdmin(ctx, orgID, userID, id.UserID); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	s.record(ctx, id, "org.admin.grant", orgID)
	return nil
}

// RevokeAdmin soft-deletes an admin grant. Removing the last admin of an
// org is rejected.
func (s *Service) RevokeAdmin(ctx context.Context, id authz.Identity, orgID, userID int64) error {
	if err := s.authz.RequireOrgAdmin(ctx, id, orgID); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		removed, err := repo.SoftDeleteAdmin(ctx, orgID, userID, id.UserID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFound
		}
		// Delete-then-count inside the transaction: an error rolls the
		// soft delete back, so the org never observably loses its last
		// admin.
		count, err := repo.CountAdmins(ctx, orgID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrLastAdmin
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, id, "org.admin.revoke", orgID)
	return nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, orgID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "org",
		EntityID: fmt.Sprintf("%d", orgID),
	})
}
