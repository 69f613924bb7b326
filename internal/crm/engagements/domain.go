package engagements

import "time"

type Status string

const (
	StatusLead   Status = "lead"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusLead, StatusActive, StatusClosed:
		return true
	}
	return false
}

// Engagement is a dated interaction with a customer, scoped to the
// customer's team.
type Engagement struct {
	ID         int64      `json:"id"`
	TeamID     int64      `json:"team_id"`
	CustomerID int64      `json:"customer_id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	Status     Status     `json:"status"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	DeletedBy  *int64     `json:"deleted_by,omitempty"`
}
