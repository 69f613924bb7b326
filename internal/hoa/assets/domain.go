package assets

import "time"

// Asset is a physical item the team maintains, tracked with its purchase
// date and expected replacement date.
type Asset struct {
	ID              int64      `json:"id"`
	TeamID          int64      `json:"team_id"`
	Name            string     `json:"name"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	ReplacementDate *time.Time `json:"replacement_date,omitempty"`
	Notes           string     `json:"notes"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	DeletedBy       *int64     `json:"deleted_by,omitempty"`
}
