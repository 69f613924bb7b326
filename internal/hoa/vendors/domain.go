package vendors

import "time"

// Vendor is a team-scoped contractor or supplier that can bid on issues.
type Vendor struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	Name      string     `json:"name"`
	Contact   string     `json:"contact"`
	Notes     string     `json:"notes"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
