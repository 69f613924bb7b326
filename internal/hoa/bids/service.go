package bids

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/hoa/issues"
	"github.com/thejar/jar/internal/hoa/vendors"
	"github.com/thejar/jar/internal/shared"
)

// ErrVendorMismatch rejects bids whose vendor belongs to a different team
// than the issue.
var ErrVendorMismatch = errors.New("bids: vendor belongs to a different team")

// Service wraps bid business rules.
type Service struct {
	repo    Repository
	issues  issues.Repository
	vendors vendors.Repository
	authz   *authz.Service
	audit   *shared.AuditLogger
}

func NewService(repo Repository, issueRepo issues.Repository, vendorRepo vendors.Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, issues: issueRepo, vendors: vendorRepo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a bid.
type Input struct {
	VendorID    int64
	AmountCents int64
	Notes       string
}

// Create attaches a bid to an issue. The bid inherits the issue's team and
// the vendor must be scoped to that same team.
func (s *Service) Create(ctx context.Context, id authz.Identity, issueID int64, in Input) (*Bid, error) {
	if in.AmountCents < 0 {
		return nil, errors.New("bids: amount must be non-negative")
	}
	issue, err := s.issues.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, issue.TeamID); err != nil {
		return nil, err
	}
	vendor, err := s.vendors.Get(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.TeamID != issue.TeamID {
		return nil, ErrVendorMismatch
	}
	bidID, err := s.repo.Create(ctx, Bid{
		TeamID:      issue.TeamID,
		IssueID:     issueID,
		VendorID:    in.VendorID,
		AmountCents: in.AmountCents,
		Notes:       in.Notes,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create bid: %w", err)
	}
	s.record(ctx, id, "bid.create", bidID, issue.TeamID)
	return s.repo.Get(ctx, bidID)
}

func (s *Service) ListForIssue(ctx context.Context, id authz.Identity, issueID int64) ([]Bid, error) {
	issue, err := s.issues.Get(ctx, issueID)
	if err != nil {
		if errors.Is(err, issues.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, issue.TeamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForIssue(ctx, issueID)
}

func (s *Service) Update(ctx context.Context, id authz.Identity, bidID, amountCents int64, notes string) (*Bid, error) {
	if amountCents < 0 {
		return nil, errors.New("bids: amount must be non-negative")
	}
	b, err := s.authorize(ctx, id, bidID)
	if err != nil {
		return nil, err
	}
	b.AmountCents = amountCents
	b.Notes = notes
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, err
	}
	s.record(ctx, id, "bid.update", bidID, b.TeamID)
	return s.repo.Get(ctx, bidID)
}

// Accept marks a bid as the chosen one for its issue. Manager tier only,
// since acceptance commits the team's money.
func (s *Service) Accept(ctx context.Context, id authz.Identity, bidID int64) (*Bid, error) {
	b, err := s.repo.Get(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireRole(ctx, id, b.TeamID, authz.RoleManager); err != nil {
		return nil, err
	}
	b.Accepted = true
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, err
	}
	s.record(ctx, id, "bid.accept", bidID, b.TeamID)
	return s.repo.Get(ctx, bidID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, bidID int64) error {
	b, err := s.authorize(ctx, id, bidID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, bidID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "bid.delete", bidID, b.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, bidID int64) (*Bid, error) {
	b, err := s.repo.Get(ctx, bidID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, b.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, b.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, bidID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "bid",
		EntityID: fmt.Sprintf("%d", bidID),
		TeamID:   teamID,
	})
}
