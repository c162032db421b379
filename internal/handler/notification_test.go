package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/internal/repo"
	"github.com/BuzzLyutic/task-collab-api/internal/service"
	"github.com/BuzzLyutic/task-collab-api/tests"
)

func setupNotificationHandler(t *testing.T) (*NotificationHandler, *pgxpool.Pool, func()) {
	pool, cleanup := tests.SetupTestDB(t)
	tests.TruncateTables(t, pool)

	notifService := service.NewNotificationService(repo.NewNotificationRepo(pool))
	return NewNotificationHandler(notifService, zap.NewNop()), pool, cleanup
}

type listResponse struct {
	Success    bool                 `json:"success"`
	Data       []model.Notification `json:"data"`
	Pagination struct {
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"pagination"`
}

func TestNotificationHandler_List(t *testing.T) {
	h, pool, cleanup := setupNotificationHandler(t)
	defer cleanup()

	userID := tests.SeedUser(t, pool, "Alice")
	tests.SeedNotifications(t, pool, userID, 15)
	user := model.AuthUser{ID: userID, Name: "Alice"}

	cases := []struct {
		name       string
		query      string
		wantItems  int
		wantLimit  int
		wantOffset int
	}{
		{name: "default limit", query: "", wantItems: 10, wantLimit: 10, wantOffset: 0},
		{name: "explicit page", query: "?limit=5&offset=12", wantItems: 3, wantLimit: 5, wantOffset: 12},
		{name: "oversized limit is clamped in the envelope too", query: "?limit=500", wantItems: 10, wantLimit: 10, wantOffset: 0},
		{name: "negative offset is clamped", query: "?limit=5&offset=-3", wantItems: 5, wantLimit: 5, wantOffset: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(t, http.MethodGet, "/api/getAllNotifications"+tc.query, nil, user)
			w := httptest.NewRecorder()

			h.List(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			var resp listResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.True(t, resp.Success)
			assert.Len(t, resp.Data, tc.wantItems)
			assert.Equal(t, 15, resp.Pagination.Total)
			assert.Equal(t, tc.wantLimit, resp.Pagination.Limit)
			assert.Equal(t, tc.wantOffset, resp.Pagination.Offset)
		})
	}
}
