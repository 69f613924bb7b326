package engagements

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("engagements: not found")

// Repository defines persistence for engagements.
type Repository interface {
	Get(ctx context.Context, id int64) (*Engagement, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Engagement, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]Engagement, error)
	Create(ctx context.Context, e Engagement) (int64, error)
	Update(ctx context.Context, e Engagement) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const engagementColumns = `id, team_id, customer_id, title, notes, status, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Engagement, error) {
	var e Engagement
	err := r.pool.QueryRow(ctx,
		`SELECT `+engagementColumns+` FROM engagements WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&e.ID, &e.TeamID, &e.CustomerID, &e.Title, &e.Notes, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Engagement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+engagementColumns+` FROM engagements
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEngagements(rows)
}

func (r *repository) ListForCustomer(ctx context.Context, customerID int64) ([]Engagement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+engagementColumns+` FROM engagements
		 WHERE customer_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEngagements(rows)
}

func (r *repository) Create(ctx context.Context, e Engagement) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO engagements (team_id, customer_id, title, notes, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		e.TeamID, e.CustomerID, e.Title, e.Notes, e.Status, e.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, e Engagement) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE engagements SET title = $2, notes = $3, status = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		e.ID, e.Title, e.Notes, e.Status,
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
		`UPDATE engagements SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
		`SELECT COUNT(*) FROM engagements WHERE team_id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}

func scanEngagements(rows pgx.Rows) ([]Engagement, error) {
	var out []Engagement
	for rows.Next() {
		var e Engagement
		if err := rows.Scan(&e.ID, &e.TeamID, &e.CustomerID, &e.Title, &e.Notes, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
