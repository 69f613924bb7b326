package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps signal business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Input carries the editable fields of a signal.
type Input struct {
	Kind     string
	Strength int
	Note     string
}

func (in *Input) normalize() error {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	if in.Kind == "" {
		return errors.New("signals: kind required")
	}
	if in.Strength < 0 || in.Strength > 10 {
		return errors.New("signals: strength must be between 0 and 10")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, in Input) (*Signal, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	signalID, err := s.repo.Create(ctx, Signal{
		TeamID:    teamID,
		Kind:      in.Kind,
		Strength:  in.Strength,
		Note:      in.Note,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create signal: %w", err)
	}
	s.record(ctx, id, "signal.create", signalID, teamID)
	return s.repo.Get(ctx, signalID)
}

func (s *Service) ListForTeam(ctx context.Context, id authz.Identity, teamID int64, kind string) ([]Signal, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.ListForTeam(ctx, teamID, strings.ToLower(strings.TrimSpace(kind)))
}

func (s *Service) Update(ctx context.Context, id authz.Identity, signalID int64, in Input) (*Signal, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	sig, err := s.authorize(ctx, id, signalID)
	if err != nil {
		return nil, err
	}
	sig.Kind = in.Kind
	sig.Strength = in.Strength
	sig.Note = in.Note
	if err := s.repo.Update(ctx, *sig); err != nil {
		return nil, err
	}
	s.record(ctx, id, "signal.update", signalID, sig.TeamID)
	return s.repo.Get(ctx, signalID)
}

func (s *Service) Delete(ctx context.Context, id authz.Identity, signalID int64) error {
	sig, err := s.authorize(ctx, id, signalID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, signalID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "signal.delete", signalID, sig.TeamID)
	return nil
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, signalID int64) (*Signal, error) {
	sig, err := s.repo.Get(ctx, signalID)
	if err != nil {
		return nil, err
	}
	access, err := s.authz.RequireTeamAccess(ctx, id, sig.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(access, sig.CreatedBy == id.UserID); err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *Service) record(ctx context.Context, id authz.Identity, action string, signalID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "signal",
		EntityID: fmt.Sprintf("%d", signalID),
		TeamID:   teamID,
	})
}
