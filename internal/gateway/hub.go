package gateway

import (
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub держит карту пользователь -> живые соединения плюс произвольные
// комнаты для обмена сообщениями. Все карты принадлежат единственной
// горутине run, снаружи в нее летят только дискретные сообщения-операции,
// поэтому гонок connect/disconnect быть не может
type Hub struct {
	logger *zap.Logger

	ops  chan hubOp
	done chan struct{}
	wg   sync.WaitGroup

	// Состояние ниже трогает только run
	clients map[*Client]struct{}
	users   map[uuid.UUID]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
}

type hubOp interface {
	apply(h *Hub)
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		ops:     make(chan hubOp, 64),
		done:    make(chan struct{}),
		clients: make(map[*Client]struct{}),
		users:   make(map[uuid.UUID]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
	}
}

func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Hub) Stop() {
	close(h.done)
	h.wg.Wait()
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case op := <-h.ops:
			op.apply(h)
		case <-h.done:
			for c := range h.clients {
				c.conn.Close(websocket.StatusGoingAway, "server shutdown")
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) enqueue(op hubOp) {
	select {
	case h.ops <- op:
	case <-h.done:
	}
}

// Subscribe регистрирует соединение в канале пользователя. Идемпотентен
func (h *Hub) Subscribe(c *Client, userID uuid.UUID) {
	h.enqueue(subscribeOp{c: c, userID: userID})
}

// Unsubscribe убирает соединение из всех каналов. Безопасен для
// соединений, которые так и не подписались
func (h *Hub) Unsubscribe(c *Client) {
	h.enqueue(unsubscribeOp{c: c})
}

// Publish доставляет событие всем живым соединениям пользователя.
// Если их нет - событие отбрасывается, долговечность не забота шлюза
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.enqueue(publishOp{userID: userID, event: event})
}

func (h *Hub) JoinRoom(c *Client, roomID string) {
	h.enqueue(joinRoomOp{c: c, roomID: roomID})
}

func (h *Hub) BroadcastToRoom(roomID string, event Event, exceptSender *Client) {
	h.enqueue(broadcastOp{roomID: roomID, event: event, except: exceptSender})
}

type subscribeOp struct {
	c      *Client
	userID uuid.UUID
}

func (op subscribeOp) apply(h *Hub) {
	// Переподписка под другим пользователем: убираем соединение из старого
	// канала, иначе там останется запись, которую drop уже не найдет
	if _, ok := h.clients[op.c]; ok && op.c.user != op.userID {
		if old, ok := h.users[op.c.user]; ok {
			delete(old, op.c)
			if len(old) == 0 {
				delete(h.users, op.c.user)
			}
		}
	}

	h.clients[op.c] = struct{}{}
	op.c.user = op.userID

	set, ok := h.users[op.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[op.userID] = set
	}
	set[op.c] = struct{}{}
	h.logger.Info("ws client subscribed",
		zap.String("user_id", op.userID.String()),
		zap.Int("connections", len(set)),
	)
}

type unsubscribeOp struct {
	c *Client
}

func (op unsubscribeOp) apply(h *Hub) {
	if _, ok := h.clients[op.c]; !ok {
		return
	}
	h.drop(op.c)
	h.logger.Info("ws client disconnected", zap.Int("clients", len(h.clients)))
}

// drop выкидывает клиента из всех карт и закрывает его очередь отправки
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)

	if set, ok := h.users[c.user]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.user)
		}
	}

	for roomID := range h.joined[c] {
		if room, ok := h.rooms[roomID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.joined, c)

	close(c.send)
}

type publishOp struct {
	userID uuid.UUID
	event  Event
}

func (op publishOp) apply(h *Hub) {
	set, ok := h.users[op.userID]
	if !ok {
		return // никто не слушает - дропаем
	}

	data, err := json.Marshal(op.event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}
	for c := range set {
		c.trySend(data)
	}
}

type joinRoomOp struct {
	c      *Client
	roomID string
}

func (op joinRoomOp) apply(h *Hub) {
	if _, ok := h.clients[op.c]; !ok {
		return
	}

	room, ok := h.rooms[op.roomID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[op.roomID] = room
	}
	room[op.c] = struct{}{}

	if h.joined[op.c] == nil {
		h.joined[op.c] = make(map[string]struct{})
	}
	h.joined[op.c][op.roomID] = struct{}{}
	h.logger.Info("ws client joined room", zap.String("room", op.roomID))
}

type broadcastOp struct {
	roomID string
	event  Event
	except *Client
}

func (op broadcastOp) apply(h *Hub) {
	room, ok := h.rooms[op.roomID]
	if !ok {
		return
	}

	data, err := json.Marshal(op.event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}
	for c := range room {
		if c == op.except {
			continue
		}
		c.trySend(data)
	}
}
