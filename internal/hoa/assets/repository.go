package assets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("assets: not found")

// Repository defines persistence for assets.
type Repository interface {
	Get(ctx context.Context, id int64) (*Asset, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Asset, error)
	Create(ctx context.Context, a Asset) (int64, error)
	Update(ctx context.Context, a Asset) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const assetColumns = `id, team_id, name, purchase_date, replacement_date, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Asset, error) {
	var a Asset
	err := r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&a.ID, &a.TeamID, &a.Name, &a.PurchaseDate, &a.ReplacementDate, &a.Notes, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Asset, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assetColumns+` FROM assets
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.TeamID, &a.Name, &a.PurchaseDate, &a.ReplacementDate, &a.Notes, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, a Asset) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assets (team_id, name, purchase_date, replacement_date, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		a.TeamID, a.Name, a.PurchaseDate, a.ReplacementDate, a.Notes, a.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, a Asset) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET name = $2, purchase_date = $3, replacement_date = $4, notes = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		a.ID, a.Name, a.PurchaseDate, a.ReplacementDate, a.Notes,
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
		`UPDATE assets SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
