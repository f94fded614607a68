package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/events"
	"go.uber.org/zap"
)

// Hub реестр живых соединений и индекс членства в комнатах.
// Все изменения и рассылки идут под одним mu, поэтому рассылка
// видит фиксированный снимок комнаты на все время раздачи.
// Внешние вызовы под mu не делаются.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты в комнатах
	rooms map[RoomID]map[uuid.UUID]*Client

	presence *PresenceTracker
	stopped  bool

	mu  sync.RWMutex
	log *zap.Logger
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[RoomID]map[uuid.UUID]*Client),
		presence:    NewPresenceTracker(),
		log:         logger.Named("hub"),
	}
}

// Stop останавливает hub и отключает всех клиентов без presence рассылок.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for _, client := range h.clients {
		client.markDisconnected()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.rooms = make(map[RoomID]map[uuid.UUID]*Client)
	h.presence = NewPresenceTracker()
}

// Register переводит аутентифицированного клиента в Joined: комната user:<id>
// и комнаты всех переданных проектов добавляются за один шаг, так что
// частично подключенный клиент никогда не наблюдаем.
func (h *Hub) Register(client *Client, projectIDs []uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return ErrHubStopped
	}
	if _, ok := h.clients[client.ID]; ok {
		return ErrClientRegistered
	}
	if client.State() != StateAuthenticated {
		return ErrClientClosed
	}

	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID()]; !ok {
		h.userClients[client.UserID()] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID()][client.ID] = client

	h.joinUnsafe(client, UserRoom(client.UserID()))
	for _, projectID := range projectIDs {
		room := ProjectRoom(projectID)
		if h.joinUnsafe(client, room) {
			h.announcePresenceUnsafe(client, room, events.UserOnlineName)
		}
	}
	client.setState(StateJoined)

	h.log.Info("client registered",
		zap.Stringer("conn", client.ID),
		zap.Stringer("user", client.UserID()),
		zap.Int("projects", len(projectIDs)),
	)
	return nil
}

// Unregister удаляет клиента из всех комнат за один шаг и рассылает offline
// в те проектные комнаты, где у пользователя не осталось соединений.
// Повторный вызов безопасен.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		client.markDisconnected()
		return
	}

	var wentOffline []RoomID
	for _, room := range client.Rooms() {
		if h.removeFromRoomUnsafe(client, room) && room.IsProject() {
			wentOffline = append(wentOffline, room)
		}
	}

	if userClients, ok := h.userClients[client.UserID()]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID())
		}
	}
	delete(h.clients, client.ID)
	client.markDisconnected()

	// Клиент уже удален из комнат, поэтому сам себе offline не получит
	for _, room := range wentOffline {
		h.announcePresenceUnsafe(client, room, events.UserOfflineName)
	}

	h.log.Info("client unregistered",
		zap.Stringer("conn", client.ID),
		zap.Stringer("user", client.UserID()),
		zap.Int("offline_rooms", len(wentOffline)),
	)
}

// Join добавляет соединение в комнату. announce, если задан, рассылается
// остальным участникам комнаты сразу после добавления под той же блокировкой.
func (h *Hub) Join(connID uuid.UUID, room RoomID, announce []byte) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return false, ErrClientNotFound
	}
	if client.IsInRoom(room) {
		return false, nil
	}

	h.joinUnsafe(client, room)
	if announce != nil {
		h.broadcastUnsafe(room, announce, client.ID)
	}
	return true, nil
}

// Leave удаляет соединение из комнаты. Комнату user:<id> покинуть нельзя.
// announce рассылается оставшимся участникам после удаления.
func (h *Hub) Leave(connID uuid.UUID, room RoomID, announce []byte) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return false, ErrClientNotFound
	}
	if room == UserRoom(client.UserID()) || !client.IsInRoom(room) {
		return false, nil
	}

	h.removeFromRoomUnsafe(client, room)
	if announce != nil {
		h.broadcastUnsafe(room, announce, uuid.Nil)
	}
	return true, nil
}

// Broadcast отправляет кадр всем соединениям комнаты, кроме exclude.
// Возвращает число соединений, которым кадр поставлен в очередь.
func (h *Hub) Broadcast(room RoomID, frame []byte, exclude uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.broadcastUnsafe(room, frame, exclude)
}

// SendToUser отправляет кадр во все соединения пользователя.
// Ноль доставок не ошибка: пользователь просто не в сети.
func (h *Hub) SendToUser(userID uuid.UUID, frame []byte) int {
	return h.Broadcast(UserRoom(userID), frame, uuid.Nil)
}

// Reconcile приводит проектные комнаты всех соединений пользователя к
// переданному списку проектов. Используется для явного обновления членства.
func (h *Hub) Reconcile(userID uuid.UUID, projectIDs []uuid.UUID) (joined, left int) {
	want := make(map[RoomID]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		want[ProjectRoom(id)] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		for _, room := range client.Rooms() {
			if !room.IsProject() {
				continue
			}
			if _, ok := want[room]; ok {
				continue
			}
			if h.removeFromRoomUnsafe(client, room) {
				h.announcePresenceUnsafe(client, room, events.UserOfflineName)
			}
			left++
		}
		for room := range want {
			if client.IsInRoom(room) {
				continue
			}
			if h.joinUnsafe(client, room) {
				h.announcePresenceUnsafe(client, room, events.UserOnlineName)
			}
			joined++
		}
	}
	return joined, left
}

func (h *Hub) Client(connID uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	return client, ok
}

// UserConnections возвращает живые соединения пользователя.
func (h *Hub) UserConnections(userID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.userClients[userID]))
	for _, c := range h.userClients[userID] {
		clients = append(clients, c)
	}
	return clients
}

// IsOnline сообщает, есть ли у пользователя хотя бы одно соединение.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// OnlineUsers возвращает пользователей, присутствующих в комнате.
func (h *Hub) OnlineUsers(room RoomID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presence.online(room)
}

// RoomSize возвращает число соединений в комнате.
func (h *Hub) RoomSize(room RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// joinUnsafe возвращает true, если это первое соединение пользователя в комнате.
func (h *Hub) joinUnsafe(client *Client, room RoomID) bool {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[uuid.UUID]*Client)
	}
	if _, ok := h.rooms[room][client.ID]; ok {
		return false
	}
	h.rooms[room][client.ID] = client
	client.addRoom(room)
	return h.presence.add(room, client.UserID())
}

// removeFromRoomUnsafe возвращает true, если ушло последнее соединение пользователя в комнате.
func (h *Hub) removeFromRoomUnsafe(client *Client, room RoomID) bool {
	members, ok := h.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[client.ID]; !ok {
		return false
	}

	delete(members, client.ID)
	client.removeRoom(room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	return h.presence.remove(room, client.UserID())
}

func (h *Hub) broadcastUnsafe(room RoomID, frame []byte, exclude uuid.UUID) int {
	members, ok := h.rooms[room]
	if !ok {
		h.log.Debug("broadcast to empty room", zap.String("room", string(room)))
		return 0
	}

	delivered := 0
	for id, client := range members {
		if id == exclude {
			continue
		}
		if err := client.enqueue(frame); err != nil {
			h.log.Warn("dropping frame", zap.Stringer("conn", id), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// announcePresenceUnsafe рассылает user:online / user:offline в проектную комнату.
func (h *Hub) announcePresenceUnsafe(client *Client, room RoomID, name events.Name) {
	projectID, ok := room.ProjectID()
	if !ok {
		return
	}
	frame, err := Encode(name, events.PresenceOut{User: client.Actor(), ProjectID: projectID})
	if err != nil {
		h.log.Error("encode presence", zap.Error(err))
		return
	}
	h.broadcastUnsafe(room, frame, client.ID)
}
