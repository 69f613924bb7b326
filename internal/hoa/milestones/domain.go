package milestones

import "time"

// Milestone is a dated checkpoint for a team, optionally attached to an
// issue it helps resolve.
type Milestone struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	IssueID   *int64     `json:"issue_id,omitempty"`
	Title     string     `json:"title"`
	DueDate   time.Time  `json:"due_date"`
	Completed bool       `json:"completed"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
