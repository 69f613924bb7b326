package milestones

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("milestones: not found")

// Repository defines persistence for milestones.
type Repository interface {
	Get(ctx context.Context, id int64) (*Milestone, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Milestone, error)
	Create(ctx context.Context, m Milestone) (int64, error)
	Update(ctx context.Context, m Milestone) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	CountOverdueForTeam(ctx context.Context, teamID int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const milestoneColumns = `id, team_id, issue_id, title, due_date, completed, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Milestone, error) {
	var m Milestone
	err := r.pool.QueryRow(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&m.ID, &m.TeamID, &m.IssueID, &m.Title, &m.DueDate, &m.Completed, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListForTeam(ctx context.Context, teamID int64) ([]Milestone, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+milestoneColumns+` FROM milestones
		 WHERE team_id = $1 AND deleted_at IS NULL ORDER BY due_date`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(&m.ID, &m.TeamID, &m.IssueID, &m.Title, &m.DueDate, &m.Completed, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, m Milestone) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO milestones (team_id, issue_id, title, due_date, completed, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		m.TeamID, m.IssueID, m.Title, m.DueDate, m.Completed, m.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, m Milestone) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE milestones SET issue_id = $2, title = $3, due_date = $4, completed = $5, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		m.ID, m.IssueID, m.Title, m.DueDate, m.Completed,
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
		`UPDATE milestones SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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

func (r *repository) CountOverdueForTeam(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM milestones
		 WHERE team_id = $1 AND completed = FALSE AND due_date < NOW() AND deleted_at IS NULL`,
		teamID,
	).Scan(&count)
	return count, err
}
