package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPresenceTracker(t *testing.T) {
	p := NewPresenceTracker()
	room := ProjectRoom(uuid.New())
	user := uuid.New()

	assert.True(t, p.add(room, user))
	assert.False(t, p.add(room, user))
	assert.Equal(t, 2, p.count(room, user))

	assert.False(t, p.remove(room, user))
	assert.True(t, p.remove(room, user))
	assert.False(t, p.remove(room, user), "removing an absent user is a no-op")
	assert.Empty(t, p.online(room))
}

func TestRoomID(t *testing.T) {
	project := uuid.New()

	id, ok := ProjectRoom(project).ProjectID()
	assert.True(t, ok)
	assert.Equal(t, project, id)
	assert.True(t, ProjectRoom(project).IsProject())

	_, ok = UserRoom(project).ProjectID()
	assert.False(t, ok)
	assert.False(t, UserRoom(project).IsProject())
}
