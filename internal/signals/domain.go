package signals

import "time"

// Signal is a lightweight team-scoped indicator: a named kind with a
// strength reading, used for trend lines on the dashboard.
type Signal struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	Kind      string     `json:"kind"`
	Strength  int        `json:"strength"`
	Note      string     `json:"note"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
