package websocket

import (
	"strings"

	"github.com/google/uuid"
)

// RoomID имя комнаты: user:<id> или project:<id>.
type RoomID string

const (
	userRoomPrefix    = "user:"
	projectRoomPrefix = "project:"
)

func UserRoom(userID uuid.UUID) RoomID {
	return RoomID(userRoomPrefix + userID.String())
}

func ProjectRoom(projectID uuid.UUID) RoomID {
	return RoomID(projectRoomPrefix + projectID.String())
}

// ProjectID возвращает id проекта для project:<id> комнат.
func (r RoomID) ProjectID() (uuid.UUID, bool) {
	s, ok := strings.CutPrefix(string(r), projectRoomPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (r RoomID) IsProject() bool {
	return strings.HasPrefix(string(r), projectRoomPrefix)
}
