package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/models"
)

func TestCommentHandler_Create(t *testing.T) {
	e := newEnv(t)
	h := NewCommentHandler(e.tasks, e.tasks, e.guard, e.router, zap.NewNop())
	e.api.POST("/tasks/:id/comments", h.Create)
	e.api.GET("/tasks/:id/comments", h.List)

	owner, _ := e.users.AddUser("owner")
	member, token := e.users.AddUser("member")
	assignee, _ := e.users.AddUser("assignee")
	_, strangerToken := e.users.AddUser("stranger")
	project := e.memberships.AddProject(owner.ID)
	e.memberships.SetRole(member.ID, project, "MEMBER")
	task := e.addTask(project, owner.ID, &assignee.ID)
	assigneeConn := e.connect(t, assignee)

	w := e.do(t, http.MethodPost, "/api/tasks/"+task.ID.String()+"/comments", token,
		map[string]string{"content": "Ready for review"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, member.ID, decode[models.Comment](t, w).AuthorID)

	assert.Equal(t, []string{"comment:received", "notification:new"}, frames(t, assigneeConn))
	assert.Len(t, e.sink.For(assignee.ID), 1)
	assert.Len(t, e.sink.For(owner.ID), 1)
	assert.Empty(t, e.sink.For(member.ID))

	w = e.do(t, http.MethodPost, "/api/tasks/"+task.ID.String()+"/comments", strangerToken,
		map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/tasks/"+task.ID.String()+"/comments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]models.Comment](t, w)["comments"], 1)
}
