package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/gateway"
	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
)

// Publisher - способность шлюза доставить событие живым соединениям
// пользователя. Передается диспетчеру явно, никаких глобальных синглтонов
type Publisher interface {
	Publish(userID uuid.UUID, event gateway.Event)
}

// Dispatcher сначала долговечно пишет уведомление, затем best-effort
// пушит его в шлюз. Источник правды - запись в хранилище, пуш может
// пропасть молча
type Dispatcher struct {
	repo   repo.NotificationRepository
	pub    Publisher
	logger *zap.Logger
}

func NewDispatcher(notifRepo repo.NotificationRepository, pub Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   notifRepo,
		pub:    pub,
		logger: logger,
	}
}

type notificationPayload struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error) {
	return d.NotifyEvent(ctx, userID, message, gateway.EventNotification, nil)
}

// NotifyEvent пишет запись и пушит событие заданного типа. Если запись
// не удалась, пуша не будет - уведомление без долговечного следа недопустимо
func (d *Dispatcher) NotifyEvent(ctx context.Context, userID uuid.UUID, message, eventType string, payload any) (model.Notification, error) {
	n, err := d.repo.Create(ctx, model.Notification{UserID: userID, Message: message})
	if err != nil {
		return n, err
	}

	if payload == nil {
		payload = notificationPayload{Message: n.Message, CreatedAt: n.CreatedAt}
	}
	d.pub.Publish(userID, gateway.NewEvent(eventType, payload))
	return n, nil
}

// NotifyMany - независимый fan-out: по одному Notify на адресата,
// конкурентно. Провал одного адресата не трогает остальных
func (d *Dispatcher) NotifyMany(ctx context.Context, targets []uuid.UUID, messageFor func(uuid.UUID) string) {
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target uuid.UUID) {
			defer wg.Done()
			if _, err := d.Notify(ctx, target, messageFor(target)); err != nil {
				d.logger.Error("notify failed",
					zap.String("user_id", target.String()),
					zap.Error(err),
				)
			}
		}(target)
	}
	wg.Wait()
}
