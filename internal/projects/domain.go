package projects

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusDone   Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusDone:
		return true
	}
	return false
}

// Project is a team-scoped workstream, optionally supporting a rock.
type Project struct {
	ID          int64      `json:"id"`
	TeamID      int64      `json:"team_id"`
	RockID      *int64     `json:"rock_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   *int64     `json:"deleted_by,omitempty"`
}
