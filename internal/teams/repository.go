package teams

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/platform/db"
)

var ErrNotFound = errors.New("teams: not found")

// Repository defines persistence for teams and memberships.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Team, error)
	ListForOrg(ctx context.Context, orgID int64) ([]Team, error)
	ListForUser(ctx context.Context, userID int64) ([]Team, error)
	Create(ctx context.Context, orgID int64, name, description string) (int64, error)
	Update(ctx context.Context, id int64, name, description string) error
	ListMembers(ctx context.Context, teamID int64) ([]Membership, error)
	UpsertMember(ctx context.Context, teamID, userID int64, role authz.Role) error
	UpdateMemberRole(ctx context.Context, teamID, userID int64, role authz.Role) (bool, error)
	SoftDeleteMember(ctx context.Context, teamID, userID, deletedBy int64) (bool, error)
	CountManagers(ctx context.Context, teamID int64) (int, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Team, error) {
	var t Team
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, name, description, created_at, updated_at
		 FROM teams WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&t.ID, &t.OrgID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListForOrg(ctx context.Context, orgID int64) ([]Team, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, name, description, created_at, updated_at
		 FROM teams WHERE org_id = $1 AND deleted_at IS NULL ORDER BY name`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Team, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.org_id, t.name, t.description, t.created_at, t.updated_at
		 FROM teams t
		 JOIN team_memberships m ON m.team_id = t.id AND m.deleted_at IS NULL
		 WHERE m.user_id = $1 AND t.deleted_at IS NULL
		 ORDER BY m.created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func (r *repository) Create(ctx context.Context, orgID int64, name, description string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO teams (org_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`,
		orgID, name, description,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, name, description string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE teams SET name = $2, description = $3, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, name, description,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, teamID int64) ([]Membership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT team_id, user_id, role, created_at, updated_at
		 FROM team_memberships
		 WHERE team_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertMember re-adds a previously removed member by clearing the
// soft-delete markers on the existing row; a duplicate row is never created.
func (r *repository) UpsertMember(ctx context.Context, teamID, userID int64, role authz.Role) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO team_memberships (team_id, user_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 ON CONFLICT (team_id, user_id)
		 DO UPDATE SET role = EXCLUDED.role, deleted_at = NULL, deleted_by = NULL, updated_at = NOW()`,
		teamID, userID, role,
	)
	return err
}

func (r *repository) UpdateMemberRole(ctx context.Context, teamID, userID int64, role authz.Role) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE team_memberships SET role = $3, updated_at = NOW()
		 WHERE team_id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		teamID, userID, role,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) SoftDeleteMember(ctx context.Context, teamID, userID, deletedBy int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE team_memberships SET deleted_at = NOW(), deleted_by = $3, updated_at = NOW()
		 WHERE team_id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		teamID, userID, deletedBy,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) CountManagers(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_memberships
		 WHERE team_id = $1 AND role = $2 AND deleted_at IS NULL`,
		teamID, authz.RoleManager,
	).Scan(&count)
	return count, err
}

func scanTeams(rows pgx.Rows) ([]Team, error) {
	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
