package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

const dailyColumns = `id, ticket_no, about, description, date, tags,
	created_by, assigned_to, created_at, updated_at`

type DailyUpdateRepo struct {
	pool *pgxpool.Pool
}

func NewDailyUpdateRepo(pool *pgxpool.Pool) *DailyUpdateRepo {
	return &DailyUpdateRepo{
		pool: pool,
	}
}

func scanDaily(row pgx.Row) (model.TaskDailyUpdate, error) {
	var d model.TaskDailyUpdate
	err := row.Scan(
		&d.ID, &d.TicketNo, &d.About, &d.Description, &d.Date, &d.Tags,
		&d.CreatedBy, &d.AssignedTo, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func (r *DailyUpdateRepo) Create(ctx context.Context, d model.TaskDailyUpdate) (model.TaskDailyUpdate, error) {
	if d.Tags == nil {
		d.Tags = []uuid.UUID{}
	}

	return scanDaily(r.pool.QueryRow(ctx, `
		INSERT INTO daily_updates (ticket_no, about, description, date, tags, created_by, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+dailyColumns,
		d.TicketNo, d.About, d.Description, d.Date, d.Tags, d.CreatedBy, d.AssignedTo,
	))
}

func (r *DailyUpdateRepo) Update(ctx context.Context, d model.TaskDailyUpdate) (model.TaskDailyUpdate, error) {
	if d.Tags == nil {
		d.Tags = []uuid.UUID{}
	}

	updated, err := scanDaily(r.pool.QueryRow(ctx, `
		UPDATE daily_updates
		SET ticket_no = $2, about = $3, description = $4, date = $5, tags = $6,
			created_by = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+dailyColumns,
		d.ID, d.TicketNo, d.About, d.Description, d.Date, d.Tags, d.CreatedBy,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return d, ErrorNotFound
	}
	return updated, err
}

func (r *DailyUpdateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM daily_updates WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *DailyUpdateRepo) ListByAuthor(ctx context.Context, userID uuid.UUID) ([]model.TaskDailyUpdate, error) {
	return r.list(ctx, `
		SELECT `+dailyColumns+`
		FROM daily_updates
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *DailyUpdateRepo) ListByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TaskDailyUpdate, error) {
	return r.list(ctx, `
		SELECT `+dailyColumns+`
		FROM daily_updates
		WHERE created_by = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC, id DESC
	`, userID, from, to)
}

func (r *DailyUpdateRepo) list(ctx context.Context, query string, args ...any) ([]model.TaskDailyUpdate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.TaskDailyUpdate
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
