package bids

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("bids: not found")

// Repository defines persistence for bids.
type Repository interface {
	Get(ctx context.Context, id int64) (*Bid, error)
	ListForIssue(ctx context.Context, issueID int64) ([]Bid, error)
	Create(ctx context.Context, b Bid) (int64, error)
	Update(ctx context.Context, b Bid) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const bidColumns = `id, team_id, issue_id, vendor_id, amount_cents, notes, accepted, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Bid, error) {
	var b Bid
	err := r.pool.QueryRow(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&b.ID, &b.TeamID, &b.IssueID, &b.VendorID, &b.AmountCents, &b.Notes, &b.Accepted, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListForIssue(ctx context.Context, issueID int64) ([]Bid, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bidColumns+` FROM bids
		 WHERE issue_id = $1 AND deleted_at IS NULL ORDER BY amount_cents`,
		issueID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bid
	for rows.Next() {
		var b Bid
		if err := rows.Scan(&b.ID, &b.TeamID, &b.IssueID, &b.VendorID, &b.AmountCents, &b.Notes, &b.Accepted, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, b Bid) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO bids (team_id, issue_id, vendor_id, amount_cents, notes, accepted, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING id`,
		b.TeamID, b.IssueID, b.VendorID, b.AmountCents, b.Notes, b.Accepted, b.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, b Bid) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bids SET amount_cents = $2, notes = $3, accepted = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		b.ID, b.AmountCents, b.Notes, b.Accepted,
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
		`UPDATE bids SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
