package issues

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("issues: not found")

// Repository defines persistence for issues.
type Repository interface {
	Get(ctx context.Context, id int64) (*Issue, error)
	ListForTeam(ctx context.Context, teamID int64, status Status) ([]Issue, error)
	Create(ctx context.Context, i Issue) (int64, error)
	Update(ctx context.Context, i Issue) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountOpenForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const issueColumns = `id, team_id, title, description, status, priority, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Issue, error) {
	var i Issue
	err := r.pool.QueryRow(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&i.ID, &i.TeamID, &i.Title, &i.Description, &i.Status, &i.Priority, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64, status Status) ([]Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE team_id = $1 AND deleted_at IS NULL`
	args := []any{teamID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var i Issue
		if err := rows.Scan(&i.ID, &i.TeamID, &i.Title, &i.Description, &i.Status, &i.Priority, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, i Issue) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO issues (team_id, title, description, status, priority, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		i.TeamID, i.Title, i.Description, i.Status, i.Priority, i.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, i Issue) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE issues SET title = $2, description = $3, status = $4, priority = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		i.ID, i.Title, i.Description, i.Status, i.Priority,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE issues SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedBy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountOpenForTeam(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM issues
		 WHERE team_id = $1 AND status <> 'resolved' AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
