package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/thejar/jar/internal/jobs"
	"github.com/thejar/jar/internal/shared"
)

// AuditCleanupJob prunes audit log rows that fell outside the retention
// window.
type AuditCleanupJob struct {
	Audit   *shared.AuditLogger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditCleanupJob initialises the audit retention handler.
func NewAuditCleanupJob(audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditCleanupJob {
	return &AuditCleanupJob{Audit: audit, Logger: logger, Metrics: metrics}
}

// Handle executes one retention pass.
func (j *AuditCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit cleanup: handler not configured")
	}
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	tracker := j.Metrics.Track(TaskAuditCleanup)
	if err := j.Audit.Cleanup(ctx, retention); err != nil {
		j.logger().Error("audit cleanup failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("audit logs pruned", slog.Duration("retention", retention))
	return tracker.End(nil)
}

func (j *AuditCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
