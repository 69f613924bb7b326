package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thejar/jar/internal/commitments"
	jobmetrics "github.com/thejar/jar/internal/jobs"
)

// WeeklyDigestJob summarises each team's week and mails it to the team's
// managers.
type WeeklyDigestJob struct {
	Pool    *pgxpool.Pool
	Client  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewWeeklyDigestJob initialises the digest handler. Client may be nil, in
// which case digests are only logged.
func NewWeeklyDigestJob(pool *pgxpool.Pool, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *WeeklyDigestJob {
	return &WeeklyDigestJob{
		Pool:    pool,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type teamDigest struct {
	TeamID          int64
	TeamName        string
	OpenCommitments int
	DoneCommitments int
	OpenIssues      int
	ManagerEmails   []string
}

// Handle builds and dispatches the digest for every live team.
func (j *WeeklyDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("weekly digest: handler not configured")
	}
	var payload WeeklyDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	at := j.clock()
	if payload.At != "" {
		parsed, err := time.Parse("2006-01-02", payload.At)
		if err != nil {
			return asynq.SkipRetry
		}
		at = parsed
	}
	week := commitments.WeekStartOf(at)

	tracker := j.Metrics.Track(TaskWeeklyDigest)
	digests, err := j.collect(ctx, week)
	if err != nil {
		j.logger().Error("weekly digest failed", slog.Any("error", err))
		return tracker.End(err)
	}

	for _, d := range digests {
		j.logger().Info("weekly digest",
			slog.Int64("team_id", d.TeamID),
			slog.String("team", d.TeamName),
			slog.Int("open_commitments", d.OpenCommitments),
			slog.Int("done_commitments", d.DoneCommitments),
			slog.Int("open_issues", d.OpenIssues),
		)
		if j.Client == nil {
			continue
		}
		body := fmt.Sprintf(
			"Week of %s for %s: %d commitments done, %d still open, %d open issues.",
			week.Format("2006-01-02"), d.TeamName, d.DoneCommitments, d.OpenCommitments, d.OpenIssues,
		)
		for _, email := range d.ManagerEmails {
			if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      email,
				Subject: "Weekly summary: " + d.TeamName,
				Body:    body,
			}); err != nil {
				j.logger().Warn("enqueue digest email", slog.Any("error", err), slog.Int64("team_id", d.TeamID))
			}
		}
	}
	return tracker.End(nil)
}

func (j *WeeklyDigestJob) collect(ctx context.Context, week time.Time) ([]teamDigest, error) {
	const query = `
SELECT t.id,
       t.name,
       COUNT(c.id) FILTER (WHERE NOT c.done)          AS open_commitments,
       COUNT(c.id) FILTER (WHERE c.done)              AS done_commitments,
       (SELECT COUNT(*) FROM issues i
         WHERE i.team_id = t.id AND i.deleted_at IS NULL AND i.status <> 'resolved') AS open_issues,
       COALESCE(ARRAY_AGG(DISTINCT u.email) FILTER (WHERE u.email IS NOT NULL), '{}') AS manager_emails
FROM teams t
LEFT JOIN commitments c
       ON c.team_id = t.id AND c.deleted_at IS NULL AND c.week_start = $1
LEFT JOIN team_memberships m
       ON m.team_id = t.id AND m.deleted_at IS NULL AND m.role = 'manager'
LEFT JOIN users u ON u.id = m.user_id AND u.is_active
WHERE t.deleted_at IS NULL
GROUP BY t.id, t.name
ORDER BY t.id`

	rows, err := j.Pool.Query(ctx, query, week)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []teamDigest
	for rows.Next() {
		var d teamDigest
		if err := rows.Scan(&d.TeamID, &d.TeamName, &d.OpenCommitments, &d.DoneCommitments, &d.OpenIssues, &d.ManagerEmails); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

func (j *WeeklyDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
