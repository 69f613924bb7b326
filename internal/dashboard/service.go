package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/commitments"
	"github.com/thejar/jar/internal/crm/customers"
	"github.com/thejar/jar/internal/crm/engagements"
	"github.com/thejar/jar/internal/hoa/issues"
	"github.com/thejar/jar/internal/hoa/milestones"
	"github.com/thejar/jar/internal/projects"
	"github.com/thejar/jar/internal/rocks"
	"github.com/thejar/jar/internal/signals"
)

// Summary aggregates the active team's headline numbers for the dashboard
// landing page.
type Summary struct {
	TeamID            int64 `json:"team_id"`
	Rocks             int   `json:"rocks"`
	Projects          int   `json:"projects"`
	Customers         int   `json:"customers"`
	Engagements       int   `json:"engagements"`
	OpenCommitments   int   `json:"open_commitments"`
	OpenIssues        int   `json:"open_issues"`
	OverdueMilestones int   `json:"overdue_milestones"`
	Signals           int   `json:"signals"`
}

// Service fans out count queries across the entity repositories.
type Service struct {
	authz       *authz.Service
	rocks       rocks.Repository
	projects    projects.Repository
	customers   customers.Repository
	engagements engagements.Repository
	commitments commitments.Repository
	issues      issues.Repository
	milestones  milestones.Repository
	signals     signals.Repository
}

// NewService constructs a Service over the entity repositories.
func NewService(
	authzService *authz.Service,
	rockRepo rocks.Repository,
	projectRepo projects.Repository,
	customerRepo customers.Repository,
	engagementRepo engagements.Repository,
	commitmentRepo commitments.Repository,
	issueRepo issues.Repository,
	milestoneRepo milestones.Repository,
	signalRepo signals.Repository,
) *Service {
	return &Service{
		authz:       authzService,
		rocks:       rockRepo,
		projects:    projectRepo,
		customers:   customerRepo,
		engagements: engagementRepo,
		commitments: commitmentRepo,
		issues:      issueRepo,
		milestones:  milestoneRepo,
		signals:     signalRepo,
	}
}

// Summarize collects the team's counts concurrently. Baseline access
// required; the queries are independent so they run in one errgroup.
func (s *Service) Summarize(ctx context.Context, id authz.Identity, teamID int64) (*Summary, error) {
	if _, err := s.authz.RequireTeamAccess(ctx, id, teamID); err != nil {
		return nil, err
	}

	summary := &Summary{TeamID: teamID}
	week := commitments.WeekStartOf(time.Now())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.rocks.CountForTeam(ctx, teamID)
		summary.Rocks = n
		return err
	})
	g.Go(func() error {
		n, err := s.projects.CountForTeam(ctx, teamID)
		summary.Projects = n
		return err
	})
	g.Go(func() error {
		n, err := s.customers.CountForTeam(ctx, teamID)
		summary.Customers = n
		return err
	})
	g.Go(func() error {
		n, err := s.engagements.CountForTeam(ctx, teamID)
		summary.Engagements = n
		return err
	})
	g.Go(func() error {
		n, err := s.commitments.CountOpenForTeam(ctx, teamID, week)
		summary.OpenCommitments = n
		return err
	})
	g.Go(func() error {
		n, err := s.issues.CountOpenForTeam(ctx, teamID)
		summary.OpenIssues = n
		return err
	})
	g.Go(func() error {
		n, err := s.milestones.CountOverdueForTeam(ctx, teamID)
		summary.OverdueMilestones = n
		return err
	})
	g.Go(func() error {
		n, err := s.signals.CountForTeam(ctx, teamID)
		summary.Signals = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
