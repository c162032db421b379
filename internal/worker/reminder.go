package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

// Notifier - кусок диспетчера, нужный воркерам
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error)
}

// ReminderPool следит за просроченными задачами и напоминает исполнителям.
// Задача забирается через SKIP LOCKED, так что несколько воркеров
// не напомнят об одном и том же дважды
type ReminderPool struct {
	pool     *pgxpool.Pool
	notifier Notifier
	logger   *zap.Logger
	count    int
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
}

func NewReminderPool(pool *pgxpool.Pool, notifier Notifier, logger *zap.Logger, count int) *ReminderPool {
	return &ReminderPool{
		pool:     pool,
		notifier: notifier,
		logger:   logger,
		count:    count,
		interval: 30 * time.Second,
		stop:     make(chan struct{}),
	}
}

func (p *ReminderPool) Start(ctx context.Context) {
	p.logger.Info("Starting reminder pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *ReminderPool) Stop() {
	p.logger.Info("Stopping reminder pool...")
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Reminder pool stopped")
}

func (p *ReminderPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.remindNext(ctx, id); err != nil && err != pgx.ErrNoRows {
				p.logger.Error("reminder error", zap.Int("worker", id), zap.Error(err))
			}
		}
	}
}

func (p *ReminderPool) remindNext(ctx context.Context, workerID int) error {
	task, assignee, err := p.claimDue(ctx)
	if err != nil {
		return err
	}

	p.logger.Info("Sending due reminder",
		zap.Int("worker", workerID),
		zap.String("task_id", task.ID.String()),
		zap.String("title", task.Title),
	)

	msg := fmt.Sprintf("Task is past due: %s", task.Title)
	if _, err := p.notifier.Notify(ctx, assignee, msg); err != nil {
		// Напоминание не ушло - снимаем штамп, попробуем еще раз.
		// Несостоявшееся снятие оставляет задачу без повтора
		if _, uerr := p.pool.Exec(ctx, "UPDATE tasks SET reminded_at = NULL WHERE id = $1", task.ID); uerr != nil {
			p.logger.Error("reset reminder stamp",
				zap.String("task_id", task.ID.String()),
				zap.Error(uerr),
			)
		}
		return err
	}
	return nil
}

// claimDue забирает одну просроченную задачу без напоминания и ставит штамп
func (p *ReminderPool) claimDue(ctx context.Context) (model.Task, uuid.UUID, error) {
	var t model.Task
	var assignee uuid.UUID

	err := p.pool.QueryRow(ctx, `
		WITH due AS (
			SELECT id
			FROM tasks
			WHERE due_date IS NOT NULL
			  AND due_date <= now()
			  AND reminded_at IS NULL
			  AND assigned_to IS NOT NULL
			  AND status <> 'completed'
			ORDER BY due_date
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE tasks
		SET reminded_at = now(), updated_at = now()
		FROM due
		WHERE tasks.id = due.id
		RETURNING tasks.id, tasks.title, tasks.assigned_to
	`).Scan(&t.ID, &t.Title, &assignee)

	return t, assignee, err
}
