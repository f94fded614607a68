package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/realtime"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/testutil"
	"github.com/thereayou/taskflow/internal/websocket"
)

type memTasks struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*models.Task
	comments map[uuid.UUID][]models.Comment
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: make(map[uuid.UUID]*models.Task), comments: make(map[uuid.UUID][]models.Comment)}
}

func (m *memTasks) CreateTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memTasks) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ListProjectTasks(_ context.Context, projectID uuid.UUID) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTasks) UpdateTask(_ context.Context, id uuid.UUID, fields map[string]any) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			t.Title = v.(string)
		case "assignee_id":
			if v == nil {
				t.AssigneeID = nil
			} else {
				id := v.(uuid.UUID)
				t.AssigneeID = &id
			}
		}
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) MoveTask(_ context.Context, id uuid.UUID, columnID string, order int) (*models.Task, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, "", services.ErrNotFound
	}
	from := t.ColumnID
	t.ColumnID, t.Order = columnID, order
	cp := *t
	return &cp, from, nil
}

func (m *memTasks) DeleteTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return services.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTasks) TaskParticipants(ctx context.Context, taskID uuid.UUID) (*services.TaskParticipants, error) {
	t, err := m.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &services.TaskParticipants{ProjectID: t.ProjectID, CreatorID: t.CreatedByID, AssigneeID: t.AssigneeID, Title: t.Title}, nil
}

func (m *memTasks) AddComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.comments[c.TaskID] = append(m.comments[c.TaskID], *c)
	return nil
}

func (m *memTasks) ListTaskComments(_ context.Context, taskID uuid.UUID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments[taskID], nil
}

// env собранное приложение без транспорта и базы.
type env struct {
	engine      *gin.Engine
	users       *testutil.Directory
	memberships *testutil.Memberships
	sink        *testutil.Sink
	tasks       *memTasks
	hub         *websocket.Hub
	guard       *access.Guard
	notifier    *realtime.Notifier
	router      *realtime.Router
	api         *gin.RouterGroup
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	e := &env{
		engine:      gin.New(),
		users:       testutil.NewDirectory(),
		memberships: testutil.NewMemberships(),
		sink:        testutil.NewSink(),
		tasks:       newMemTasks(),
		hub:         websocket.NewHub(logger),
	}
	t.Cleanup(e.hub.Stop)

	e.guard = access.NewGuard(e.memberships)
	e.notifier = realtime.NewNotifier(e.sink, e.hub, logger)
	e.router = realtime.NewRouter(e.hub, e.guard, e.tasks, e.sink, e.notifier, logger)
	e.api = e.engine.Group("/api", middleware.AuthMiddleware(e.users))
	return e
}

func (e *env) connect(t *testing.T, u services.UserIdentity, projects ...uuid.UUID) *websocket.Client {
	t.Helper()
	c := websocket.NewClient(e.hub, nil, u)
	require.NoError(t, e.hub.Register(c, projects))
	return c
}

func (e *env) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func frames(t *testing.T, c *websocket.Client) []string {
	t.Helper()
	var out []string
	for {
		select {
		case frame, ok := <-c.Send():
			if !ok {
				return out
			}
			var msg websocket.Message
			require.NoError(t, json.Unmarshal(frame, &msg))
			out = append(out, string(msg.Type))
		default:
			return out
		}
	}
}

func (e *env) addTask(projectID, creator uuid.UUID, assignee *uuid.UUID) *models.Task {
	task := &models.Task{ProjectID: projectID, ColumnID: "todo", Title: "Write docs", CreatedByID: creator, AssigneeID: assignee}
	_ = e.tasks.CreateTask(context.Background(), task)
	return task
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
