package orgs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thejar/jar/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("orgs: not found")
	ErrAlreadyExists = errors.New("orgs: already exists")
)

// Repository defines persistence for orgs and admin grants.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Org, error)
	ListFor(ctx context.Context, userID int64) ([]Org, error)
	Create(ctx context.Context, name, slug string) (int64, error)
	ListAdmins(ctx context.Context, orgID int64) ([]AdminGrant, error)
	CountAdmins(ctx context.Context, orgID int64) (int, error)
	UpsertAdmin(ctx context.Context, orgID, userID, grantedBy int64) error
	SoftDeleteAdmin(ctx context.Context, orgID, userID, deletedBy int64) (bool, error)
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

func (r *repository) Get(ctx context.Context, id int64) (*Org, error) {
	var org Org
	err := r.db.QueryRow(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM orgs WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// ListFor returns orgs the user can see: those where they hold an admin
// grant or a team membership.
func (r *repository) ListFor(ctx context.Context, userID int64) ([]Org, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT o.id, o.name, o.slug, o.created_at, o.updated_at
		 FROM orgs o
		 LEFT JOIN org_admins a ON a.org_id = o.id AND a.user_id = $1 AND a.deleted_at IS NULL
		 LEFT JOIN teams t ON t.org_id = o.id AND t.deleted_at IS NULL
		 LEFT JOIN team_memberships m ON m.team_id = t.id AND m.user_id = $1 AND m.deleted_at IS NULL
		 WHERE o.deleted_at IS NULL AND (a.user_id IS NOT NULL OR m.user_id IS NOT NULL)
		 ORDER BY o.name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Org
	for rows.Next() {
		var org Org
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, name, slug string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO orgs (name, slug, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		name, slug,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) ListAdmins(ctx context.Context, orgID int64) ([]AdminGrant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT org_id, user_id, granted_by, created_at
		 FROM org_admins WHERE org_id = $1 AND deleted_at IS NULL ORDER BY created_at`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdminGrant
	for rows.Next() {
		var g AdminGrant
		if err := rows.Scan(&g.OrgID, &g.UserID, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) CountAdmins(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM org_admins WHERE org_id = $1 AND deleted_at IS NULL`,
		orgID,
	).Scan(&count)
	return count, err
}

// UpsertAdmin restores a previously revoked grant instead of inserting a
// duplicate row.
func (r *repository) UpsertAdmin(ctx context.Context, orgID, userID, grantedBy int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO org_admins (org_id, user_id, granted_by, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (org_id, user_id)
		 DO UPDATE SET deleted_at = NULL, deleted_by = NULL, granted_by = EXCLUDED.granted_by`,
		orgID, userID, grantedBy,
	)
	return err
}

func (r *repository) SoftDeleteAdmin(ctx context.Context, orgID, userID, deletedBy int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE org_admins SET deleted_at = NOW(), deleted_by = $3
		 WHERE org_id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		orgID, userID, deletedBy,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
