package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/middleware"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
	"github.com/BuzzLyutic/task-collab-api/internal/service"
	"github.com/BuzzLyutic/task-collab-api/pkg/respond"
)

type NotificationHandler struct {
	service *service.NotificationService
	logger  *zap.Logger
}

func NewNotificationHandler(srv *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	// Зажимаем до запроса, чтобы в pagination ушли фактические значения
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.service.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.logger.Error("list notifications", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "Something went wrong on the server, we are on it.")
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    items,
		"pagination": map[string]int{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *NotificationHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.service.MarkSeen(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			respond.Error(w, r, http.StatusNotFound, "not found")
			return
		}
		h.logger.Error("mark seen", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "Something went wrong on the server, we are on it.")
		return
	}

	respond.Message(w, r, http.StatusOK, "Update notification successfully")
}
