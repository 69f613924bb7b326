package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskCommitmentsRollover clones unfinished commitments into the new week.
	TaskCommitmentsRollover = "commitments:rollover"
	// TaskAuditCleanup prunes audit logs past retention.
	TaskAuditCleanup = "audit:cleanup"
	// TaskWeeklyDigest builds the per-team weekly summary email.
	TaskWeeklyDigest = "digest:weekly"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands with the notification rollout.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// RolloverPayload parameterises a commitments rollover run. An empty payload
// rolls over relative to the current time.
type RolloverPayload struct {
	At string `json:"at,omitempty"`
}

// NewCommitmentsRolloverTask constructs the weekly rollover task.
func NewCommitmentsRolloverTask() (*asynq.Task, error) {
	data, err := json.Marshal(RolloverPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommitmentsRollover, data), nil
}

// AuditCleanupPayload parameterises audit retention pruning.
type AuditCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditCleanupTask constructs the daily audit pruning task.
func NewAuditCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}

// WeeklyDigestPayload parameterises the weekly digest run.
type WeeklyDigestPayload struct {
	At string `json:"at,omitempty"`
}

// NewWeeklyDigestTask constructs the weekly digest task.
func NewWeeklyDigestTask() (*asynq.Task, error) {
	data, err := json.Marshal(WeeklyDigestPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWeeklyDigest, data), nil
}
