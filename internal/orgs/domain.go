package orgs

import "time"

// Org is the top-level tenant.
type Org struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminGrant gives a user blanket authority over every team in an org. It is
// distinct from team membership and soft-deletable like one.
type AdminGrant struct {
	OrgID     int64      `json:"org_id"`
	UserID    int64      `json:"user_id"`
	GrantedBy int64      `json:"granted_by"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
