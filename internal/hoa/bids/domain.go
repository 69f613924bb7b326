package bids

import "time"

// Bid is a vendor's priced offer to resolve an issue. It inherits its team
// from the issue; the vendor must belong to the same team.
type Bid struct {
	ID          int64      `json:"id"`
	TeamID      int64      `json:"team_id"`
	IssueID     int64      `json:"issue_id"`
	VendorID    int64      `json:"vendor_id"`
	AmountCents int64      `json:"amount_cents"`
	Notes       string     `json:"notes"`
	Accepted    bool       `json:"accepted"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   *int64     `json:"deleted_by,omitempty"`
}
