package rocks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("rocks: not found")

// Repository defines persistence for rocks.
type Repository interface {
	Get(ctx context.Context, id int64) (*Rock, error)
	ListForTeam(ctx context.Context, teamID int64, quarter string) ([]Rock, error)
	Create(ctx context.Context, r Rock) (int64, error)
	Update(ctx context.Context, r Rock) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const rockColumns = `id, team_id, title, quarter, status, progress, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Rock, error) {
	var rock Rock
	err := r.pool.QueryRow(ctx,
		`SELECT `+rockColumns+` FROM rocks WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&rock.ID, &rock.TeamID, &rock.Title, &rock.Quarter, &rock.Status, &rock.Progress, &rock.CreatedBy, &rock.CreatedAt, &rock.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rock, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64, quarter string) ([]Rock, error) {
	query := `SELECT ` + rockColumns + ` FROM rocks WHERE team_id = $1 AND deleted_at IS NULL`
	args := []any{teamID}
	if quarter != "" {
		query += ` AND quarter = $2`
		args = append(args, quarter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rock
	for rows.Next() {
		var rock Rock
		if err := rows.Scan(&rock.ID, &rock.TeamID, &rock.Title, &rock.Quarter, &rock.Status, &rock.Progress, &rock.CreatedBy, &rock.CreatedAt, &rock.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rock)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, rock Rock) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO rocks (team_id, title, quarter, status, progress, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		rock.TeamID, rock.Title, rock.Quarter, rock.Status, rock.Progress, rock.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, rock Rock) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rocks SET title = $2, quarter = $3, status = $4, progress = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		rock.ID, rock.Title, rock.Quarter, rock.Status, rock.Progress,
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
		`UPDATE rocks SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
		`SELECT COUNT(*) FROM rocks WHERE team_id = $1 AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
