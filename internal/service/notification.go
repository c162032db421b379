package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
)

// NotificationService - читающая сторона хранилища уведомлений
type NotificationService struct {
	repo repo.NotificationRepository
}

func NewNotificationService(notifRepo repo.NotificationRepository) *NotificationService {
	return &NotificationService{repo: notifRepo}
}

// List отдает страницу уведомлений пользователя, новые сверху,
// плюс общее количество для пагинации. Границы limit/offset зажимает
// HTTP-слой - он же отдает их клиенту в pagination
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int, error) {
	items, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *NotificationService) MarkSeen(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkSeen(ctx, id)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
