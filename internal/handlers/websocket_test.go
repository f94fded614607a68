package handlers

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/events"
	ws "github.com/thereayou/taskflow/internal/websocket"
)

// serveSockets публикует /ws на настоящем http сервере.
func (e *env) serveSockets(t *testing.T) string {
	t.Helper()
	cfg := ws.ConnectorConfig{HandshakeTimeout: time.Second, MembershipRetries: 1, RetryDelay: time.Millisecond}
	connector := ws.NewConnector(e.hub, e.users, e.memberships, cfg, zap.NewNop())
	h := NewWebSocketHandler(connector, e.router, nil, zap.NewNop())
	e.engine.GET("/ws", h.HandleWebSocket)

	srv := httptest.NewServer(e.engine)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func (e *env) dial(t *testing.T, url, token string, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return e.hub.IsOnline(userID) }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// expectSilence должен быть последним чтением из conn: после таймаута соединение непригодно.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestWebSocket_UpdateReachesMemberAndDisconnectAnnouncesOffline(t *testing.T) {
	e := newEnv(t)
	url := e.serveSockets(t)

	a, aToken := e.users.AddUser("a")
	b, bToken := e.users.AddUser("b")
	p1 := e.memberships.AddProject(a.ID)
	e.memberships.SetRole(b.ID, p1, "MEMBER")
	task := e.addTask(p1, a.ID, nil)

	aConn := e.dial(t, url, aToken, a.ID)
	bConn := e.dial(t, url, bToken, b.ID)
	assert.Equal(t, events.UserOnlineName, readFrame(t, aConn).Type)

	require.NoError(t, aConn.WriteJSON(map[string]any{
		"type": events.TaskUpdatedName,
		"data": map[string]any{
			"projectId": p1,
			"task":      map[string]any{"id": task.ID, "title": "Renamed"},
			"changes":   map[string]any{"fields": map[string]string{"title": "Renamed"}},
		},
	}))

	got := readFrame(t, bConn)
	require.Equal(t, events.TaskUpdatedName, got.Type)
	var updated events.TaskUpdatedOut
	require.NoError(t, json.Unmarshal(got.Data, &updated))
	assert.Equal(t, a.ID, updated.UpdatedBy.ID)

	bConn.Close()

	offline := readFrame(t, aConn)
	require.Equal(t, events.UserOfflineName, offline.Type, "origin receives no echo of its own update")
	var presence events.PresenceOut
	require.NoError(t, json.Unmarshal(offline.Data, &presence))
	assert.Equal(t, b.ID, presence.User.ID)
	assert.Equal(t, p1, presence.ProjectID)

	expectSilence(t, aConn)
}

func TestWebSocket_NonMemberCannotCreateInForeignProject(t *testing.T) {
	e := newEnv(t)
	url := e.serveSockets(t)

	c, cToken := e.users.AddUser("c")
	d, dToken := e.users.AddUser("d")
	p2 := e.memberships.AddProject(d.ID)

	cConn := e.dial(t, url, cToken, c.ID)
	dConn := e.dial(t, url, dToken, d.ID)
	before := e.hub.RoomSize(ws.ProjectRoom(p2))

	require.NoError(t, cConn.WriteJSON(map[string]any{
		"type": events.TaskCreatedName,
		"data": json.RawMessage(fmt.Sprintf(`{"projectId":%q,"task":{"id":%q,"title":"x"}}`, p2, uuid.New())),
	}))

	expectSilence(t, dConn)
	expectSilence(t, cConn)
	assert.Equal(t, before, e.hub.RoomSize(ws.ProjectRoom(p2)))
	assert.Empty(t, e.sink.Created)
}
