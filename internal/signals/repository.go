package signals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("signals: not found")

// Repository defines persistence for signals.
type Repository interface {
	Get(ctx context.Context, id int64) (*Signal, error)
	ListForTeam(ctx context.Context, teamID int64, kind string) ([]Signal, error)
	Create(ctx context.Context, s Signal) (int64, error)
	Update(ctx context.Context, s Signal) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const signalColumns = `id, team_id, kind, strength, note, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Signal, error) {
	var s Signal
	err := r.pool.QueryRow(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&s.ID, &s.TeamID, &s.Kind, &s.Strength, &s.Note, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64, kind string) ([]Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE team_id = $1 AND deleted_at IS NULL`
	args := []any{teamID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Signal
	for rows.Next() {
		var s Signal
		if err := rows.Scan(&s.ID, &s.TeamID, &s.Kind, &s.Strength, &s.Note, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Signal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO signals (team_id, kind, strength, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		s.TeamID, s.Kind, s.Strength, s.Note, s.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, s Signal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE signals SET kind = $2, strength = $3, note = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		s.ID, s.Kind, s.Strength, s.Note,
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
		`UPDATE signals SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
		`SELECT COUNT(*) FROM signals WHERE team_id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
