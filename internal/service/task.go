package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/gateway"
	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrTicketNotFound = errors.New("ticket number not found")
)

// Notifier - то, что координатору нужно от диспетчера уведомлений
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error)
	NotifyEvent(ctx context.Context, userID uuid.UUID, message, eventType string, payload any) (model.Notification, error)
	NotifyMany(ctx context.Context, targets []uuid.UUID, messageFor func(uuid.UUID) string)
}

// TaskService - координатор мутаций задач: пишет документ, сверяет
// соавторов и раздает уведомления всем затронутым. Многошаговые мутации
// сознательно не обернуты в транзакцию - at-least-once, частичный сбой
// оставляет уже отправленные уведомления в силе
type TaskService struct {
	tasks    repo.TaskRepository
	daily    repo.DailyUpdateRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewTaskService(tasks repo.TaskRepository, daily repo.DailyUpdateRepository, notifier Notifier, logger *zap.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		daily:    daily,
		notifier: notifier,
		logger:   logger,
	}
}

type taskEventPayload struct {
	TaskID    uuid.UUID `json:"taskId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

var validStatuses = map[string]struct{}{
	model.StatusOpen:       {},
	model.StatusPending:    {},
	model.StatusInProgress: {},
	model.StatusTesting:    {},
	model.StatusCompleted:  {},
}

func (s *TaskService) Create(ctx context.Context, draft model.TaskDraft, author model.AuthUser) (model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if draft.Priority == 0 {
		draft.Priority = 5
	}
	if draft.Priority < 1 || draft.Priority > 10 {
		return model.Task{}, fmt.Errorf("%w: priority out of range", ErrValidation)
	}
	if draft.Status == "" {
		draft.Status = model.StatusOpen
	}
	if _, ok := validStatuses[draft.Status]; !ok {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, draft.Status)
	}

	var assignee *uuid.UUID
	if draft.AssignedTo != "" {
		id, err := uuid.Parse(draft.AssignedTo)
		if err != nil {
			return model.Task{}, fmt.Errorf("%w: %q", ErrMalformedRef, draft.AssignedTo)
		}
		assignee = &id
	}

	// Сверка с пустым текущим набором дает провалидированный список без дублей
	delta, err := ReconcileCollaborators(nil, draft.Collaborators)
	if err != nil {
		return model.Task{}, err
	}
	collaborators := delta.Added

	task, err := s.tasks.Create(ctx, model.Task{
		Title:         draft.Title,
		Description:   draft.Description,
		Status:        draft.Status,
		Priority:      draft.Priority,
		DueDate:       draft.DueDate,
		CreatedBy:     author.ID,
		AssignedTo:    assignee,
		Collaborators: collaborators,
		File:          draft.File,
	})
	if err != nil {
		return task, err
	}

	// Уведомляется создатель, а не исполнитель - унаследованное поведение,
	// клиенты на него завязаны
	msg := fmt.Sprintf("You have been assigned to task: %s", task.Title)
	if _, err := s.notifier.NotifyEvent(ctx, author.ID, msg, gateway.EventTaskCreated, taskEventPayload{
		TaskID:    task.ID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return task, err
	}

	// Три пост-операции независимы: сбой одной не откатывает ни задачу,
	// ни остальные
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if assignee == nil {
			return
		}
		if err := s.tasks.LinkUserTask(ctx, *assignee, task.ID); err != nil {
			s.logger.Error("link assignee", zap.String("task_id", task.ID.String()), zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range collaborators {
			if err := s.tasks.LinkUserTask(ctx, id, task.ID); err != nil {
				s.logger.Error("link collaborator", zap.String("task_id", task.ID.String()), zap.Error(err))
			}
		}
	}()
	go func() {
		defer wg.Done()
		s.notifier.NotifyMany(ctx, collaborators, func(uuid.UUID) string {
			return fmt.Sprintf("You are a collaborator on the new task: %s", task.Title)
		})
	}()
	wg.Wait()

	return task, nil
}

func (s *TaskService) Update(ctx context.Context, taskID uuid.UUID, patch model.TaskPatch, author model.AuthUser) (model.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return task, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return task, fmt.Errorf("%w: title is required", ErrValidation)
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if _, ok := validStatuses[*patch.Status]; !ok {
			return task, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
		}
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		if *patch.Priority < 1 || *patch.Priority > 10 {
			return task, fmt.Errorf("%w: priority out of range", ErrValidation)
		}
		task.Priority = *patch.Priority
	}

	if patch.AssignedTo != nil {
		id, err := uuid.Parse(*patch.AssignedTo)
		if err != nil {
			return task, fmt.Errorf("%w: %q", ErrMalformedRef, *patch.AssignedTo)
		}
		if task.AssignedTo == nil || *task.AssignedTo != id {
			// Нового исполнителя уведомляем до коммита поля. Не атомарно
			// с записью - принятый риск
			msg := fmt.Sprintf("You have been assigned to task: %s", task.Title)
			if _, err := s.notifier.NotifyEvent(ctx, id, msg, gateway.EventTaskAssigned, taskEventPayload{
				TaskID:    task.ID,
				Message:   msg,
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				return task, err
			}
		}
		task.AssignedTo = &id
	}

	if patch.Collaborators != nil {
		delta, err := ReconcileCollaborators(task.Collaborators, patch.Collaborators)
		if err != nil {
			return task, err
		}
		task.Collaborators = delta.Result()
		if len(delta.Added) > 0 {
			s.notifier.NotifyMany(ctx, delta.Added, func(uuid.UUID) string {
				return fmt.Sprintf("You are a collaborator on the new task: %s", task.Title)
			})
		}
	}

	if patch.Comments != nil && strings.TrimSpace(*patch.Comments) != "" {
		if _, err := s.tasks.AddComment(ctx, task.ID, model.Comment{
			Text:      *patch.Comments,
			CreatedBy: author.ID,
		}); err != nil {
			return task, err
		}
	}

	return s.tasks.Update(ctx, task)
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.tasks.List(ctx, filter, limit)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.tasks.GetStats(ctx)
}

func (s *TaskService) CreateDailyUpdate(ctx context.Context, draft model.DailyUpdateDraft, author model.AuthUser) (model.TaskDailyUpdate, error) {
	task, err := s.resolveTicket(ctx, draft.TicketNo)
	if err != nil {
		return model.TaskDailyUpdate{}, err
	}

	tags, err := parseRefs(draft.Tags)
	if err != nil {
		return model.TaskDailyUpdate{}, err
	}

	date := time.Now().UTC()
	if draft.Date != nil {
		date = *draft.Date
	}

	d, err := s.daily.Create(ctx, model.TaskDailyUpdate{
		TicketNo:    draft.TicketNo,
		About:       draft.About,
		Description: draft.Description,
		Date:        date,
		Tags:        tags,
		CreatedBy:   author.ID,
		AssignedTo:  task.AssignedTo, // денормализация на момент создания
	})
	if err != nil {
		return d, err
	}

	s.notifyDailyParties(ctx, task.AssignedTo, tags, author, "")
	return d, nil
}

func (s *TaskService) UpdateDailyUpdate(ctx context.Context, patch model.DailyUpdatePatch, author model.AuthUser) (model.TaskDailyUpdate, error) {
	id, err := uuid.Parse(patch.ID)
	if err != nil {
		return model.TaskDailyUpdate{}, fmt.Errorf("%w: %q", ErrMalformedRef, patch.ID)
	}

	task, err := s.resolveTicket(ctx, patch.TicketNo)
	if err != nil {
		return model.TaskDailyUpdate{}, err
	}

	tags, err := parseRefs(patch.Tags)
	if err != nil {
		return model.TaskDailyUpdate{}, err
	}

	date := time.Now().UTC()
	if patch.Date != nil {
		date = *patch.Date
	}

	d, err := s.daily.Update(ctx, model.TaskDailyUpdate{
		ID:          id,
		TicketNo:    patch.TicketNo,
		About:       patch.About,
		Description: patch.Description,
		Date:        date,
		Tags:        tags,
		CreatedBy:   author.ID,
	})
	if err != nil {
		return d, err
	}

	s.notifyDailyParties(ctx, task.AssignedTo, tags, author, fmt.Sprintf(" Ticket Number %d", patch.TicketNo))
	return d, nil
}

func (s *TaskService) DeleteDailyUpdate(ctx context.Context, id uuid.UUID) error {
	return s.daily.Delete(ctx, id)
}

func (s *TaskService) ListDailyUpdates(ctx context.Context, author uuid.UUID) ([]model.TaskDailyUpdate, error) {
	return s.daily.ListByAuthor(ctx, author)
}

// FilterDailyUpdates возвращает отчеты автора за один календарный день
func (s *TaskService) FilterDailyUpdates(ctx context.Context, author uuid.UUID, day time.Time) ([]model.TaskDailyUpdate, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return s.daily.ListByDateRange(ctx, author, start, end)
}

func (s *TaskService) resolveTicket(ctx context.Context, ticketNo int64) (model.Task, error) {
	task, err := s.tasks.GetByTicket(ctx, ticketNo)
	if errors.Is(err, repo.ErrorNotFound) {
		return task, ErrTicketNotFound
	}
	return task, err
}

// notifyDailyParties уведомляет исполнителя задачи и всех отмеченных
// пользователей. Каждый адресат независим от остальных
func (s *TaskService) notifyDailyParties(ctx context.Context, assignee *uuid.UUID, tags []uuid.UUID, author model.AuthUser, suffix string) {
	var wg sync.WaitGroup

	if assignee != nil {
		name := author.Name
		if name == "" {
			name = "Unknown"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := fmt.Sprintf("Your task has been updated by: %s%s", name, suffix)
			if _, err := s.notifier.Notify(ctx, *assignee, msg); err != nil {
				s.logger.Error("notify assignee", zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.notifier.NotifyMany(ctx, tags, func(uuid.UUID) string {
			return fmt.Sprintf("You are tagged in a task: %s%s", author.Name, suffix)
		})
	}()
	wg.Wait()
}

func parseRefs(refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	seen := make(map[uuid.UUID]struct{}, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRef, ref)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
