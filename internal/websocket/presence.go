package websocket

import "github.com/google/uuid"

// PresenceTracker считает соединения по паре (пользователь, комната).
// Пользователь онлайн в комнате, пока счетчик больше нуля, поэтому
// закрытие одной вкладки из двух не порождает ложный offline.
// Все методы вызываются под блокировкой Hub.
type PresenceTracker struct {
	counts map[RoomID]map[uuid.UUID]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{counts: make(map[RoomID]map[uuid.UUID]int)}
}

// add возвращает true, если это первое соединение пользователя в комнате.
func (p *PresenceTracker) add(room RoomID, userID uuid.UUID) bool {
	users, ok := p.counts[room]
	if !ok {
		users = make(map[uuid.UUID]int)
		p.counts[room] = users
	}
	users[userID]++
	return users[userID] == 1
}

// remove возвращает true, если ушло последнее соединение пользователя.
func (p *PresenceTracker) remove(room RoomID, userID uuid.UUID) bool {
	users, ok := p.counts[room]
	if !ok || users[userID] == 0 {
		return false
	}
	users[userID]--
	if users[userID] > 0 {
		return false
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(p.counts, room)
	}
	return true
}

func (p *PresenceTracker) count(room RoomID, userID uuid.UUID) int {
	return p.counts[room][userID]
}

func (p *PresenceTracker) online(room RoomID) []uuid.UUID {
	users := make([]uuid.UUID, 0, len(p.counts[room]))
	for userID := range p.counts[room] {
		users = append(users, userID)
	}
	return users
}
