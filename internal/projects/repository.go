package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("projects: not found")

// Repository defines persistence for projects.
type Repository interface {
	Get(ctx context.Context, id int64) (*Project, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Project, error)
	Create(ctx context.Context, p Project) (int64, error)
	Update(ctx context.Context, p Project) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const projectColumns = `id, team_id, rock_id, name, description, status, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&p.ID, &p.TeamID, &p.RockID, &p.Name, &p.Description, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.TeamID, &p.RockID, &p.Name, &p.Description, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Project) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO projects (team_id, rock_id, name, description, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		p.TeamID, p.RockID, p.Name, p.Description, p.Status, p.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, p Project) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET rock_id = $2, name = $3, description = $4, status = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.RockID, p.Name, p.Description, p.Status,
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
		`UPDATE projects SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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

func (r *repository) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE team_id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
