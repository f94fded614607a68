package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/testutil"
)

// memProjects хранит проекты и пишет членство в testutil.Memberships,
// чтобы Guard видел изменения.
type memProjects struct {
	mu          sync.Mutex
	projects    map[uuid.UUID]*models.Project
	memberships *testutil.Memberships
}

func (m *memProjects) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.memberships.AddProject(p.OwnerID)
	m.projects[p.ID] = p
	return nil
}

func (m *memProjects) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return p, nil
}

func (m *memProjects) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	ids, err := m.memberships.ListProjectsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.projects[id])
	}
	return out, nil
}

func (m *memProjects) AddMember(_ context.Context, projectID, userID uuid.UUID, role string) error {
	m.memberships.SetRole(userID, projectID, role)
	return nil
}

func (m *memProjects) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if _, found, _ := m.memberships.GetRole(ctx, userID, projectID); !found {
		return services.ErrNotFound
	}
	m.memberships.RemoveMember(userID, projectID)
	return nil
}

func (m *memProjects) DeleteProject(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

type memUsers map[uuid.UUID]*models.User

func (m memUsers) SaveUser(_ context.Context, u *models.User) error { m[u.ID] = u; return nil }
func (m memUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return u, nil
}
func (m memUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, services.ErrNotFound
}
func (m memUsers) UpdateLastSeen(context.Context, uuid.UUID) error { return nil }

func projectRoutes(e *env, users memUsers) *memProjects {
	projects := &memProjects{projects: make(map[uuid.UUID]*models.Project), memberships: e.memberships}
	h := NewProjectHandler(projects, users, e.guard, e.notifier, e.hub, zap.NewNop())
	e.api.POST("/projects", h.Create)
	e.api.GET("/projects", h.List)
	e.api.GET("/projects/:id", h.Get)
	e.api.DELETE("/projects/:id", h.Delete)
	e.api.POST("/projects/:id/members", h.AddMember)
	e.api.DELETE("/projects/:id/members/:userId", h.RemoveMember)
	e.api.GET("/projects/:id/online", h.Online)
	return projects
}

func TestProjectHandler_MembershipFlow(t *testing.T) {
	e := newEnv(t)
	users := memUsers{}

	owner, ownerToken := e.users.AddUser("owner")
	bob, bobToken := e.users.AddUser("bob")
	users[owner.ID] = &models.User{ID: owner.ID, Name: owner.Name}
	users[bob.ID] = &models.User{ID: bob.ID, Name: bob.Name}
	projectRoutes(e, users)

	w := e.do(t, http.MethodPost, "/api/projects", ownerToken, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := decode[models.Project](t, w)

	path := "/api/projects/" + project.ID.String()

	w = e.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	bobConn := e.connect(t, bob)
	w = e.do(t, http.MethodPost, path+"/members", ownerToken, map[string]any{"user_id": bob.ID, "role": "VIEWER"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	invites := e.sink.For(bob.ID)
	require.Len(t, invites, 1)
	assert.Equal(t, models.NotificationProjectInvite, invites[0].Type)
	assert.Equal(t, []string{"notification:new"}, frames(t, bobConn))

	// Viewer не может управлять участниками
	w = e.do(t, http.MethodPost, path+"/members", bobToken, map[string]any{"user_id": owner.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, path+"/members/"+bob.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodDelete, path+"/members/"+bob.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_Online(t *testing.T) {
	e := newEnv(t)
	owner, token := e.users.AddUser("owner")
	projects := projectRoutes(e, memUsers{})

	p := &models.Project{Name: "Gemini", OwnerID: owner.ID}
	require.NoError(t, projects.CreateProject(context.Background(), p))
	e.connect(t, owner, p.ID)
	e.connect(t, owner, p.ID)

	w := e.do(t, http.MethodGet, "/api/projects/"+p.ID.String()+"/online", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{owner.ID}, decode[map[string][]uuid.UUID](t, w)["users"])
}
