package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/thejar/jar/internal/commitments"
	jobmetrics "github.com/thejar/jar/internal/jobs"
)

// CommitmentsRolloverJob clones unfinished commitments from the previous week
// into the current one.
type CommitmentsRolloverJob struct {
	Service *commitments.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewCommitmentsRolloverJob initialises the rollover handler.
func NewCommitmentsRolloverJob(service *commitments.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *CommitmentsRolloverJob {
	return &CommitmentsRolloverJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the rollover. The clone query deduplicates on title and
// week, so a retried run is a no-op.
func (j *CommitmentsRolloverJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("commitments rollover: handler not configured")
	}
	var payload RolloverPayload
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

	tracker := j.Metrics.Track(TaskCommitmentsRollover)
	cloned, err := j.Service.Rollover(ctx, at)
	if err != nil {
		j.logger().Error("commitments rollover failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddRolledOver(cloned)
	j.logger().Info("commitments rolled over",
		slog.Int64("cloned", cloned),
		slog.Time("week_start", commitments.WeekStartOf(at)),
	)
	return tracker.End(nil)
}

func (j *CommitmentsRolloverJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
