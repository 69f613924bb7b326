package commitments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/shared"
)

// Service wraps commitment business rules.
type Service struct {
	repo  Repository
	authz *authz.Service
	audit *shared.AuditLogger
}

func NewService(repo Repository, authzService *authz.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authz: authzService, audit: audit}
}

// Create records a commitment for the given week. A zero week lands in the
// current week.
func (s *Service) Create(ctx context.Context, id authz.Identity, teamID int64, title string, weekStart time.Time, rockID *int64) (*Commitment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("commitments: title required")
	}
	if weekStart.IsZero() {
		weekStart = time.Now()
	}
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}
	commitmentID, err := s.repo.Create(ctx, Commitment{
		TeamID:    teamID,
		RockID:    rockID,
		Title:     title,
		WeekStart: WeekStartOf(weekStart),
		CreatedBy: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create commitment: %w", err)
	}
	s.record(ctx, id, "commitment.create", commitmentID, teamID)
	return s.repo.Get(ctx, commitmentID)
}

// ListWeek returns a team's commitments for the week containing the given
// time. Denial reads as an empty result.
func (s *Service) ListWeek(ctx context.Context, id authz.Identity, teamID int64, at time.Time) ([]Commitment, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, nil
		}
		return nil, err
	}
	if at.IsZero() {
		at = time.Now()
	}
	return s.repo.ListForTeamWeek(ctx, teamID, WeekStartOf(at))
}

// SetDone toggles the completion flag. Owner-or-manager.
func (s *Service) SetDone(ctx context.Context, id authz.Identity, commitmentID int64, done bool) (*Commitment, error) {
	c, err := s.authorize(ctx, id, commitmentID)
	if err != nil {
		return nil, err
	}
	c.Done = done
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, err
	}
	s.record(ctx, id, "commitment.done", commitmentID, c.TeamID)
	return s.repo.Get(ctx, commitmentID)
}

// Update edits a commitment's title and rock link.
func (s *Service) Update(ctx context.Context, id authz.Identity, commitmentID int64, title string, rockID *int64) (*Commitment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("commitments: title required")
	}
	c, err := s.authorize(ctx, id, commitmentID)
	if err != nil {
		return nil, err
	}
	c.Title = title
	c.RockID = rockID
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, err
	}
	s.record(ctx, id, "commitment.update", commitmentID, c.TeamID)
	return s.repo.Get(ctx, commitmentID)
}

// Delete soft-deletes a commitment.
func (s *Service) Delete(ctx context.Context, id authz.Identity, commitmentID int64) error {
	c, err := s.authorize(ctx, id, commitmentID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, commitmentID, id.UserID); err != nil {
		return err
	}
	s.record(ctx, id, "commitment.delete", commitmentID, c.TeamID)
	return nil
}

// Rollover clones last week's unfinished commitments into the week
// containing now. Invoked by the scheduled worker, not by request handlers,
// so it takes no identity.
func (s *Service) Rollover(ctx context.Context, now time.Time) (int64, error) {
	thisWeek := WeekStartOf(now)
	lastWeek := thisWeek.AddDate(0, 0, -7)
	return s.repo.CloneUnfinished(ctx, lastWeek, thisWeek)
}

func (s *Service) authorize(ctx context.Context, id authz.Identity, commitmentID int64) (*Commitment, error) {
	c, err := s.repo.Get(ctx, commitmentID)
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

func (s *Service) record(ctx context.Context, id authz.Identity, action string, commitmentID, teamID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "commitment",
		EntityID: fmt.Sprintf("%d", commitmentID),
		TeamID:   teamID,
	})
}
