package gateway

import "time"

// Типы серверных push-событий
const (
	EventNotification   = "notification"
	EventTaskAssigned   = "taskAssigned"
	EventTaskCreated    = "taskCreated"
	EventReceiveMessage = "receiveMessage"
)

type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
