package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("customers: not found")

// Repository defines persistence for customers.
type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Customer, error)
	ListPageForTeam(ctx context.Context, teamID int64, limit, offset int) ([]Customer, error)
	Create(ctx context.Context, c Customer) (int64, error)
	Update(ctx context.Context, c Customer) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, team_id, name, email, phone, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&c.ID, &c.TeamID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListPageForTeam(ctx context.Context, teamID int64, limit, offset int) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY name LIMIT $2 OFFSET $3`,
		teamID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (team_id, name, email, phone, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		c.TeamID, c.Name, c.Email, c.Phone, c.Notes, c.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET name = $2, email = $3, phone = $4, notes = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.Name, c.Email, c.Phone, c.Notes,
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
		`UPDATE customers SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
		`SELECT COUNT(*) FROM customers WHERE team_id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
