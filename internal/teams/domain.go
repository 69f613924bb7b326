package teams

import (
	"time"

	"github.com/thejar/jar/internal/authz"
)

// Team is the unit of collaboration inside an org; every domain entity is
// scoped to exactly one team.
type Team struct {
	ID          int64     `json:"id"`
	OrgID       int64     `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership links a user to a team with a role. Removal is a soft delete
// so the row can be restored when the user rejoins.
type Membership struct {
	TeamID    int64      `json:"team_id"`
	UserID    int64      `json:"user_id"`
	Role      authz.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
}
