package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (model.Task, error)
	GetByTicket(ctx context.Context, ticketNo int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	AddComment(ctx context.Context, taskID uuid.UUID, c model.Comment) (model.Comment, error)
	LinkUserTask(ctx context.Context, userID, taskID uuid.UUID) error
	GetStats(ctx context.Context) (Stats, error)
}

// NotificationRepository - хранилище уведомлений, append-only.
// Меняется только флаг seen
type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkSeen(ctx context.Context, id uuid.UUID) error
}

type DailyUpdateRepository interface {
	Create(ctx context.Context, d model.TaskDailyUpdate) (model.TaskDailyUpdate, error)
	Update(ctx context.Context, d model.TaskDailyUpdate) (model.TaskDailyUpdate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAuthor(ctx context.Context, userID uuid.UUID) ([]model.TaskDailyUpdate, error)
	ListByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TaskDailyUpdate, error)
}
