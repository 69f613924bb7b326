package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("profiles: not found")

// Repository defines persistence for user profiles.
type Repository interface {
	Get(ctx context.Context, userID int64) (*Profile, error)
	GetMany(ctx context.Context, userIDs []int64) ([]Profile, error)
	Upsert(ctx context.Context, userID int64, displayName string, weeklyCapacity int) (*Profile, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, display_name, weekly_capacity, created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.DisplayName, &p.WeeklyCapacity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetMany(ctx context.Context, userIDs []int64) ([]Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, display_name, weekly_capacity, created_at, updated_at
		 FROM profiles WHERE user_id = ANY($1) ORDER BY display_name`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.WeeklyCapacity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, userID int64, displayName string, weeklyCapacity int) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, display_name, weekly_capacity, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 ON CONFLICT (user_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name,
		               weekly_capacity = EXCLUDED.weekly_capacity,
		               updated_at = NOW()
		 RETURNING user_id, display_name, weekly_capacity, created_at, updated_at`,
		userID, displayName, weeklyCapacity,
	).Scan(&p.UserID, &p.DisplayName, &p.WeeklyCapacity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
