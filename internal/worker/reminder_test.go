package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/tests"
)

// recordingNotifier запоминает отправленные напоминания
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReminder
	fail bool
}

type sentReminder struct {
	userID  uuid.UUID
	message string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, message string) (model.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return model.Notification{}, context.DeadlineExceeded
	}
	n.sent = append(n.sent, sentReminder{userID: userID, message: message})
	return model.Notification{ID: uuid.New(), UserID: userID, Message: message}, nil
}

func (n *recordingNotifier) all() []sentReminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentReminder(nil), n.sent...)
}

func TestReminderPool_RemindsOverdueOnce(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tests.TruncateTables(t, pool)

	creator := tests.SeedUser(t, pool, "alice")
	assignee := tests.SeedUser(t, pool, "bob")
	taskID, _ := tests.SeedTask(t, pool, "Overdue report", creator, &assignee)

	// Просрочили вчера
	_, err := pool.Exec(ctx, "UPDATE tasks SET due_date = now() - interval '1 day' WHERE id = $1", taskID)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	reminders := NewReminderPool(pool, notifier, zap.NewNop(), 3)
	reminders.interval = 100 * time.Millisecond
	reminders.Start(ctx)

	ok := tests.WaitForCondition(t, 5*time.Second, func() bool {
		return len(notifier.all()) >= 1
	})
	// Даем остальным воркерам шанс продублировать, если бы могли
	time.Sleep(300 * time.Millisecond)
	reminders.Stop()

	require.True(t, ok, "reminder should be sent")
	sent := notifier.all()
	require.Len(t, sent, 1, "SKIP LOCKED must prevent duplicate reminders")
	assert.Equal(t, assignee, sent[0].userID)
	assert.Equal(t, "Task is past due: Overdue report", sent[0].message)

	var remindedAt *time.Time
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT reminded_at FROM tasks WHERE id = $1", taskID).Scan(&remindedAt))
	assert.NotNil(t, remindedAt, "claimed task must carry the reminder stamp")
}

func TestReminderPool_SkipsUnassignedAndCompleted(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tests.TruncateTables(t, pool)

	creator := tests.SeedUser(t, pool, "alice")
	assignee := tests.SeedUser(t, pool, "bob")

	unassigned, _ := tests.SeedTask(t, pool, "Nobody's", creator, nil)
	done, _ := tests.SeedTask(t, pool, "Shipped", creator, &assignee)
	_, err := pool.Exec(ctx, "UPDATE tasks SET due_date = now() - interval '1 day' WHERE id IN ($1, $2)", unassigned, done)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "UPDATE tasks SET status = 'completed' WHERE id = $1", done)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	reminders := NewReminderPool(pool, notifier, zap.NewNop(), 1)
	reminders.interval = 100 * time.Millisecond
	reminders.Start(ctx)

	time.Sleep(500 * time.Millisecond)
	reminders.Stop()

	assert.Empty(t, notifier.all())
}

func TestReminderPool_FailedDeliveryIsRetried(t *testing.T) {
	pool, cleanup := tests.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tests.TruncateTables(t, pool)

	creator := tests.SeedUser(t, pool, "alice")
	assignee := tests.SeedUser(t, pool, "bob")
	taskID, _ := tests.SeedTask(t, pool, "Flaky", creator, &assignee)
	_, err := pool.Exec(ctx, "UPDATE tasks SET due_date = now() - interval '1 day' WHERE id = $1", taskID)
	require.NoError(t, err)

	notifier := &recordingNotifier{fail: true}
	reminders := NewReminderPool(pool, notifier, zap.NewNop(), 1)
	reminders.interval = 100 * time.Millisecond
	reminders.Start(ctx)

	// Доставка падает - штамп снимается, задача снова в очереди
	time.Sleep(300 * time.Millisecond)
	notifier.mu.Lock()
	notifier.fail = false
	notifier.mu.Unlock()

	ok := tests.WaitForCondition(t, 5*time.Second, func() bool {
		return len(notifier.all()) >= 1
	})
	reminders.Stop()

	require.True(t, ok, "reminder should eventually be delivered")
	assert.Equal(t, assignee, notifier.all()[0].userID)
}
