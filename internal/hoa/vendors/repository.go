package vendors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("vendors: not found")

// Repository defines persistence for vendors.
type Repository interface {
	Get(ctx context.Context, id int64) (*Vendor, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Vendor, error)
	Create(ctx context.Context, v Vendor) (int64, error)
	Update(ctx context.Context, v Vendor) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const vendorColumns = `id, team_id, name, contact, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Vendor, error) {
	var v Vendor
	err := r.pool.QueryRow(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&v.ID, &v.TeamID, &v.Name, &v.Contact, &v.Notes, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Vendor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+vendorColumns+` FROM vendors
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.TeamID, &v.Name, &v.Contact, &v.Notes, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, v Vendor) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO vendors (team_id, name, contact, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		v.TeamID, v.Name, v.Contact, v.Notes, v.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vendors SET name = $2, contact = $3, notes = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		v.ID, v.Name, v.Contact, v.Notes,
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
		`UPDATE vendors SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
