package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	user uuid.UUID
}

// trySend кладет кадр в очередь клиента. Медленного клиента не ждем
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// clientFrame - кадр от клиента: joinRoom либо sendMessage
type clientFrame struct {
	Event   string `json:"event"`
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type roomMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// ServeWS апгрейдит соединение и сразу подписывает его на канал пользователя
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Фронт живет на другом origin
	})
	if err != nil {
		h.logger.Error("ws accept", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.Subscribe(client, userID)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unsubscribe(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.logger.Warn("ws bad frame", zap.Error(err))
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame clientFrame) {
	switch frame.Event {
	case "joinRoom":
		c.hub.JoinRoom(c, frame.RoomID)
	case "sendMessage":
		c.hub.BroadcastToRoom(frame.RoomID, NewEvent(EventReceiveMessage, roomMessage{
			Message: frame.Message,
			Sender:  frame.Sender,
		}), c)
	default:
		c.hub.logger.Warn("ws unknown event", zap.String("event", frame.Event))
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
