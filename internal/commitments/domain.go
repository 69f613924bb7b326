package commitments

import "time"

// Commitment is a weekly promise made by a user, optionally tied to a rock.
// WeekStart is the Monday of the week it belongs to.
type Commitment struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	RockID    *int64     `json:"rock_id,omitempty"`
	Title     string     `json:"title"`
	WeekStart time.Time  `json:"week_start"`
	Done      bool       `json:"done"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}

// WeekStartOf truncates t to the Monday of its week, at midnight UTC.
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, 1-weekday)
}
