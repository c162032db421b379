package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, ticket_no, title, description, status, priority, due_date,
	created_by, assigned_to, collaborators, file_name, file_content_type, file_ref,
	created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var fileName, fileContentType, fileRef *string

	err := row.Scan(
		&t.ID, &t.TicketNo, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedBy, &t.AssignedTo, &t.Collaborators, &fileName, &fileContentType, &fileRef,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}

	if fileName != nil {
		t.File = &model.FileMeta{Name: *fileName}
		if fileContentType != nil {
			t.File.ContentType = *fileContentType
		}
		if fileRef != nil {
			t.File.Ref = *fileRef
		}
	}
	return t, nil
}

func fileFields(f *model.FileMeta) (name, contentType, ref *string) {
	if f == nil {
		return nil, nil, nil
	}
	return &f.Name, &f.ContentType, &f.Ref
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	fileName, fileContentType, fileRef := fileFields(t.File)

	if t.Collaborators == nil {
		t.Collaborators = []uuid.UUID{}
	}

	created, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, due_date,
			created_by, assigned_to, collaborators, file_name, file_content_type, file_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		t.CreatedBy, t.AssignedTo, t.Collaborators, fileName, fileContentType, fileRef,
	))
	return created, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	t.Comments, err = r.comments(ctx, id)
	return t, err
}

func (r *TaskRepo) GetByTicket(ctx context.Context, ticketNo int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE ticket_no = $1
	`, ticketNo))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, ticket_no DESC
		LIMIT $2
	`, filter.Status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	if t.Collaborators == nil {
		t.Collaborators = []uuid.UUID{}
	}

	updated, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
			assigned_to = $7, collaborators = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		t.AssignedTo, t.Collaborators,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return updated, err
}

func (r *TaskRepo) AddComment(ctx context.Context, taskID uuid.UUID, c model.Comment) (model.Comment, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_comments (task_id, body, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, body, created_by, created_at
	`, taskID, c.Text, c.CreatedBy).Scan(&c.ID, &c.Text, &c.CreatedBy, &c.CreatedAt)
	return c, err
}

// LinkUserTask добавляет обратную ссылку задача->пользователь.
// Повторная вставка той же пары безвредна
func (r *TaskRepo) LinkUserTask(ctx context.Context, userID, taskID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_tasks (user_id, task_id) VALUES ($1, $2)
		ON CONFLICT (user_id, task_id) DO NOTHING
	`, userID, taskID)
	return err
}

func (r *TaskRepo) comments(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, body, created_by, created_at
		FROM task_comments
		WHERE task_id = $1
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *TaskRepo) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.TotalTasks += count
	}
	return stats, rows.Err()
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
