package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/gateway"
	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

// MockNotificationRepo - мок хранилища уведомлений
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationRepo) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepo) MarkSeen(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingPublisher запоминает все пуши. NotifyMany зовет его из
// нескольких горутин, поэтому мьютекс
type recordingPublisher struct {
	mu     sync.Mutex
	pushes []pushedEvent
}

type pushedEvent struct {
	userID uuid.UUID
	event  gateway.Event
}

func (p *recordingPublisher) Publish(userID uuid.UUID, event gateway.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushedEvent{userID: userID, event: event})
}

func (p *recordingPublisher) all() []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushedEvent(nil), p.pushes...)
}

func TestDispatcher_Notify(t *testing.T) {
	userID := uuid.New()

	t.Run("stores then pushes", func(t *testing.T) {
		mockRepo := new(MockNotificationRepo)
		pub := &recordingPublisher{}

		stored := model.Notification{ID: uuid.New(), UserID: userID, Message: "hello"}
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
			return n.UserID == userID && n.Message == "hello"
		})).Return(stored, nil)

		d := NewDispatcher(mockRepo, pub, zap.NewNop())
		n, err := d.Notify(context.Background(), userID, "hello")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, n.ID)

		pushes := pub.all()
		require.Len(t, pushes, 1)
		assert.Equal(t, userID, pushes[0].userID)
		assert.Equal(t, gateway.EventNotification, pushes[0].event.Type)

		mockRepo.AssertExpectations(t)
	})

	t.Run("store failure - zero pushes", func(t *testing.T) {
		mockRepo := new(MockNotificationRepo)
		pub := &recordingPublisher{}

		mockRepo.On("Create", mock.Anything, mock.Anything).
			Return(model.Notification{}, errors.New("store unavailable"))

		d := NewDispatcher(mockRepo, pub, zap.NewNop())
		_, err := d.Notify(context.Background(), userID, "hello")

		require.Error(t, err)
		assert.Empty(t, pub.all(), "пуш без долговечной записи недопустим")
	})

	t.Run("custom event type", func(t *testing.T) {
		mockRepo := new(MockNotificationRepo)
		pub := &recordingPublisher{}

		mockRepo.On("Create", mock.Anything, mock.Anything).
			Return(model.Notification{ID: uuid.New(), UserID: userID, Message: "assigned"}, nil)

		d := NewDispatcher(mockRepo, pub, zap.NewNop())
		_, err := d.NotifyEvent(context.Background(), userID, "assigned", gateway.EventTaskAssigned, map[string]string{"taskId": "42"})

		require.NoError(t, err)
		pushes := pub.all()
		require.Len(t, pushes, 1)
		assert.Equal(t, gateway.EventTaskAssigned, pushes[0].event.Type)
	})
}

func TestDispatcher_NotifyMany(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()
	u3 := uuid.New()

	t.Run("failed target does not block the rest", func(t *testing.T) {
		mockRepo := new(MockNotificationRepo)
		pub := &recordingPublisher{}

		for _, ok := range []uuid.UUID{u1, u3} {
			target := ok
			mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
				return n.UserID == target
			})).Return(model.Notification{ID: uuid.New(), UserID: target}, nil)
		}
		// u2 обречен - хранилище отвергает запись
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
			return n.UserID == u2
		})).Return(model.Notification{}, errors.New("doomed reference"))

		d := NewDispatcher(mockRepo, pub, zap.NewNop())
		d.NotifyMany(context.Background(), []uuid.UUID{u1, u2, u3}, func(uuid.UUID) string {
			return "fan-out"
		})

		pushes := pub.all()
		assert.Len(t, pushes, 2)
		for _, p := range pushes {
			assert.NotEqual(t, u2, p.userID)
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty target list is a no-op", func(t *testing.T) {
		mockRepo := new(MockNotificationRepo)
		pub := &recordingPublisher{}

		d := NewDispatcher(mockRepo, pub, zap.NewNop())
		d.NotifyMany(context.Background(), nil, func(uuid.UUID) string { return "" })

		assert.Empty(t, pub.all())
		mockRepo.AssertExpectations(t)
	})
}
