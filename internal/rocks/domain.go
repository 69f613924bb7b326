package rocks

import "time"

// Status is the lifecycle of a quarterly rock.
type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusOffTrack Status = "off_track"
	StatusDone     Status = "done"
	StatusDropped  Status = "dropped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnTrack, StatusOffTrack, StatusDone, StatusDropped:
		return true
	}
	return false
}

// Rock is a quarterly strategic goal owned by the user who created it and
// scoped to exactly one team.
type Rock struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	Title     string     `json:"title"`
	Quarter   string     `json:"quarter"`
	Status    Status     `json:"status"`
	Progress  int        `json:"progress"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
