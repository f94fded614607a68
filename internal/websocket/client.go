package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/services"
	"go.uber.org/zap"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping, единственный heartbeat соединения
	pingPeriod = 30 * time.Second

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB

	sendQueueSize = 256
)

// State состояние соединения. Переходы только вперед:
// Connecting -> Authenticated -> Joined -> Disconnected.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateJoined
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// ClientMessageHandler обрабатывает события, пришедшие от клиента.
type ClientMessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *Message) error
}

type Client struct {
	ID        uuid.UUID
	User      services.UserIdentity
	Conn      *websocket.Conn
	CreatedAt time.Time

	hub       *Hub
	send      chan []byte
	pingEvery time.Duration
	rooms     map[RoomID]struct{}
	state     State
	closed    bool
	mu        sync.RWMutex
}

// NewClient создает соединение для уже аутентифицированного пользователя.
// Conn может быть nil, если транспорт обслуживается снаружи.
func NewClient(hub *Hub, conn *websocket.Conn, user services.UserIdentity) *Client {
	return &Client{
		ID:        uuid.New(),
		User:      user,
		Conn:      conn,
		CreatedAt: time.Now(),
		hub:       hub,
		send:      make(chan []byte, sendQueueSize),
		pingEvery: pingPeriod,
		rooms:     make(map[RoomID]struct{}),
		state:     StateAuthenticated,
	}
}

func (c *Client) UserID() uuid.UUID { return c.User.ID }

// Actor представление владельца соединения для исходящих событий.
func (c *Client) Actor() events.Actor {
	return events.Actor{ID: c.User.ID, Name: c.User.Name, Email: c.User.Email}
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Send очередь исходящих кадров. Закрывается хабом при отключении.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// ReadPump читает сообщения от клиента до закрытия транспорта.
func (c *Client) ReadPump(ctx context.Context, handler ClientMessageHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("websocket read error", zap.Stringer("conn", c.ID), zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case events.PongName, events.PingName:
			continue
		}

		if handler == nil {
			continue
		}
		if err := handler.HandleMessage(ctx, c, &msg); err != nil {
			c.hub.log.Debug("client message rejected",
				zap.Stringer("conn", c.ID),
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
			c.SendError(err.Error())
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue не блокируется: при переполненной очереди кадр теряется.
func (c *Client) enqueue(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendMessage(name events.Name, data any) error {
	frame, err := Encode(name, data)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

func (c *Client) SendError(errorMsg string) {
	c.SendMessage(events.ErrorName, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(room RoomID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Client) Rooms() []RoomID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]RoomID, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// markDisconnected вызывается хабом под его блокировкой.
func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.state = StateDisconnected
	c.rooms = make(map[RoomID]struct{})
	close(c.send)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) addRoom(room RoomID) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeRoom(room RoomID) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// decodeData вспомогательная распаковка payload.
func decodeData(msg *Message, v any) error {
	if len(msg.Data) == 0 {
		return ErrInvalidMessage
	}
	return json.Unmarshal(msg.Data, v)
}
