package profiles

import "time"

// Profile is the user-editable presentation layer over a user account.
// WeeklyCapacity is the number of hours the user plans to commit per week;
// commitment views use it to flag overcommitment.
type Profile struct {
	UserID         int64     `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	WeeklyCapacity int       `json:"weekly_capacity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
