package commitments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("commitments: not found")

// Repository defines persistence for commitments.
type Repository interface {
	Get(ctx context.Context, id int64) (*Commitment, error)
	ListForTeamWeek(ctx context.Context, teamID int64, weekStart time.Time) ([]Commitment, error)
	Create(ctx context.Context, c Commitment) (int64, error)
	Update(ctx context.Context, c Commitment) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountOpenForTeam(ctx context.Context, teamID int64, weekStart time.Time) (int, error)
	// CloneUnfinished copies every not-done, non-deleted commitment from one
	// week into the next, preserving team, owner, and rock link. Returns the
	// number of rows created. Used by the weekly rollover job.
	CloneUnfinished(ctx context.Context, fromWeek, toWeek time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const commitmentColumns = `id, team_id, rock_id, title, week_start, done, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Commitment, error) {
	var c Commitment
	err := r.pool.QueryRow(ctx,
		`SELECT `+commitmentColumns+` FROM commitments WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&c.ID, &c.TeamID, &c.RockID, &c.Title, &c.WeekStart, &c.Done, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListForTeamWeek(ctx context.Context, teamID int64, weekStart time.Time) ([]Commitment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+commitmentColumns+` FROM commitments
		 WHERE team_id = $1 AND week_start = $2 AND deleted_at IS NULL
		 ORDER BY created_at`,
		teamID, weekStart,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Commitment
	for rows.Next() {
		var c Commitment
		if err := rows.Scan(&c.ID, &c.TeamID, &c.RockID, &c.Title, &c.WeekStart, &c.Done, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Commitment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO commitments (team_id, rock_id, title, week_start, done, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		c.TeamID, c.RockID, c.Title, c.WeekStart, c.Done, c.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Commitment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE commitments SET rock_id = $2, title = $3, done = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.RockID, c.Title, c.Done,
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
		`UPDATE commitments SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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

func (r *repository) CountOpenForTeam(ctx context.Context, teamID int64, weekStart time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM commitments
		 WHERE team_id = $1 AND week_start = $2 AND done = FALSE AND deleted_at IS NULL`,
		teamID, weekStart,
	).Scan(&count)
	return count, err
}

func (r *repository) CloneUnfinished(ctx context.Context, fromWeek, toWeek time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO commitments (team_id, rock_id, title, week_start, done, created_by, created_at, updated_at)
		 SELECT c.team_id, c.rock_id, c.title, $2, FALSE, c.created_by, NOW(), NOW()
		 FROM commitments c
		 WHERE c.week_start = $1 AND c.done = FALSE AND c.deleted_at IS NULL
		   AND NOT EXISTS (
		     SELECT 1 FROM commitments n
		     WHERE n.week_start = $2 AND n.title = c.title
		       AND n.team_id = c.team_id AND n.created_by = c.created_by
		       AND n.deleted_at IS NULL
		   )`,
		fromWeek, toWeek,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
