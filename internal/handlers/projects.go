package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/handlers/dto"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/realtime"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/websocket"
)

type ProjectHandler struct {
	projects ProjectRepository
	users    UserRepository
	guard    *access.Guard
	notifier *realtime.Notifier
	hub      *websocket.Hub
	log      *zap.Logger
}

func NewProjectHandler(projects ProjectRepository, users UserRepository, guard *access.Guard, notifier *realtime.Notifier, hub *websocket.Hub, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		users:    users,
		guard:    guard,
		notifier: notifier,
		hub:      hub,
		log:      logger.Named("projects"),
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     middleware.CurrentUserID(c),
		CreatedAt:   time.Now(),
	}
	if err := h.projects.CreateProject(c.Request.Context(), project); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListUserProjects(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := h.authorize(c, access.RoleViewer)
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := h.authorize(c, access.RoleOwner)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), projectID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMember добавляет участника и отправляет ему приглашение.
// Комнаты соединений приглашенного не меняются до его refresh или project:joined.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	projectID, ok := h.authorize(c, access.RoleManager)
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := req.Role
	if role == "" {
		role = string(access.RoleMember)
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, req.UserID); err != nil {
		respondError(c, h.log, err)
		return
	}
	project, err := h.projects.GetProject(ctx, projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if project.OwnerID == req.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner role cannot be changed"})
		return
	}

	if err := h.projects.AddMember(ctx, projectID, req.UserID, role); err != nil {
		respondError(c, h.log, err)
		return
	}

	inviter := middleware.CurrentUser(c)
	_, err = h.notifier.Notify(ctx, req.UserID,
		"Project Invitation",
		fmt.Sprintf("%s added you to project %q", inviter.Name, project.Name),
		models.NotificationProjectInvite,
		gin.H{"projectId": projectID, "role": role, "invitedBy": inviter.ID},
	)
	if err != nil {
		h.log.Warn("invite notification failed", zap.Stringer("user", req.UserID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"project_id": projectID, "user_id": req.UserID, "role": role})
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, ok := h.authorize(c, access.RoleManager)
	if !ok {
		return
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.projects.RemoveMember(c.Request.Context(), projectID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Online пользователи, у которых есть соединение в комнате проекта.
func (h *ProjectHandler) Online(c *gin.Context) {
	projectID, ok := h.authorize(c, access.RoleViewer)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.hub.OnlineUsers(websocket.ProjectRoom(projectID))})
}

func (h *ProjectHandler) authorize(c *gin.Context, level access.Role) (uuid.UUID, bool) {
	projectID, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return projectID, false
	}
	if err := h.guard.Require(c.Request.Context(), middleware.CurrentUserID(c), projectID, level); err != nil {
		respondError(c, h.log, err)
		return projectID, false
	}
	return projectID, true
}
