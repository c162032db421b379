package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/middleware"
	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
	"github.com/BuzzLyutic/task-collab-api/internal/service"
	"github.com/BuzzLyutic/task-collab-api/pkg/respond"
)

type TaskHandler struct {
	service       *service.TaskService
	notifications *service.NotificationService
	logger        *zap.Logger
	production    bool
}

func NewTaskHandler(srv *service.TaskService, notifications *service.NotificationService, logger *zap.Logger, production bool) *TaskHandler {
	return &TaskHandler{
		service:       srv,
		notifications: notifications,
		logger:        logger,
		production:    production,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var draft model.TaskDraft
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := h.parseMultipartDraft(r, &draft); err != nil {
			respond.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if r.ContentLength == 0 {
			respond.Error(w, r, http.StatusBadRequest, "empty request body")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			h.logger.Error("failed to decode json", zap.Error(err))
			respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
			return
		}
	}

	task, err := h.service.Create(r.Context(), draft, user)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Task Created Successfully",
		"task":    task,
	})
}

// parseMultipartDraft разбирает форму с полями задачи и опциональным
// файлом. Само содержимое файла ядро не хранит, только метаданные
func (h *TaskHandler) parseMultipartDraft(r *http.Request, draft *model.TaskDraft) error {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return fmt.Errorf("invalid multipart form: %v", err)
	}

	draft.Title = r.FormValue("title")
	draft.Description = r.FormValue("description")
	draft.AssignedTo = r.FormValue("assignedTo")
	draft.Status = r.FormValue("status")
	if v := r.FormValue("priority"); v != "" {
		draft.Priority, _ = strconv.Atoi(v)
	}
	if v := r.FormValue("dueDate"); v != "" {
		due, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid dueDate: %v", err)
		}
		draft.DueDate = &due
	}
	if v := r.FormValue("collaborators"); v != "" {
		if err := json.Unmarshal([]byte(v), &draft.Collaborators); err != nil {
			return fmt.Errorf("failed to parse collaborators: %v", err)
		}
	}

	if file, header, err := r.FormFile("file"); err == nil {
		file.Close()
		draft.File = &model.FileMeta{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Ref:         uuid.NewString(),
		}
	}
	return nil
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	var patch model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.service.Update(r.Context(), id, patch, user); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.Message(w, r, http.StatusOK, "Task updated successfully")
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tasks, err := h.service.List(r.Context(), filter, limit)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	unread, err := h.notifications.CountUnread(r.Context(), user.ID)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	stats.UnreadNotifications = unread

	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) CreateDailyUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var draft model.DailyUpdateDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.service.CreateDailyUpdate(r.Context(), draft, user); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.Message(w, r, http.StatusOK, "Created report successfully")
}

func (h *TaskHandler) UpdateDailyUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var patch model.DailyUpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.service.UpdateDailyUpdate(r.Context(), patch, user); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.Message(w, r, http.StatusOK, "TaskDaily updated successfully")
}

func (h *TaskHandler) DeleteDailyUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.DeleteDailyUpdate(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.Message(w, r, http.StatusOK, "TaskDaily Deleted successfully")
}

func (h *TaskHandler) ListDailyUpdates(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	updates, err := h.service.ListDailyUpdates(r.Context(), user.ID)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   updates,
	})
}

func (h *TaskHandler) FilterDailyUpdates(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	startDate := r.URL.Query().Get("startDate")
	if startDate == "" {
		respond.Error(w, r, http.StatusBadRequest, "startDate is required")
		return
	}

	day, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		if day, err = time.Parse(time.RFC3339, startDate); err != nil {
			respond.Error(w, r, http.StatusBadRequest, "invalid startDate")
			return
		}
	}

	updates, err := h.service.FilterDailyUpdates(r.Context(), user.ID, day)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(updates),
		"data":    updates,
	})
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		respond.Error(w, r, http.StatusNotFound, "Ticket number not found")
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrMalformedRef):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		// Наружу уходит маскированное сообщение, детали только вне прода
		message := "Something went wrong on the server, we are on it."
		if !h.production {
			message = err.Error()
		}
		respond.Error(w, r, http.StatusInternalServerError, message)
	}
}
