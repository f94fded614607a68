package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/handlers/dto"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/realtime"
)

type CommentHandler struct {
	tasks    TaskRepository
	comments CommentRepository
	guard    *access.Guard
	router   *realtime.Router
	log      *zap.Logger
}

func NewCommentHandler(tasks TaskRepository, comments CommentRepository, guard *access.Guard, router *realtime.Router, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		tasks:    tasks,
		comments: comments,
		guard:    guard,
		router:   router,
		log:      logger.Named("comments"),
	}
}

func (h *CommentHandler) List(c *gin.Context) {
	taskID, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	task, err := h.tasks.GetTask(ctx, taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.guard.Require(ctx, middleware.CurrentUserID(c), task.ProjectID, access.RoleViewer); err != nil {
		respondError(c, h.log, err)
		return
	}

	comments, err := h.comments.ListTaskComments(ctx, taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Create сохраняет комментарий и уведомляет исполнителя и автора задачи.
func (h *CommentHandler) Create(c *gin.Context) {
	taskID, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	task, err := h.tasks.GetTask(ctx, taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.guard.Require(ctx, user.ID, task.ProjectID, access.RoleMember); err != nil {
		respondError(c, h.log, err)
		return
	}

	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := h.comments.AddComment(ctx, comment); err != nil {
		respondError(c, h.log, err)
		return
	}

	publish(ctx, h.router, h.log, c, events.CommentAdded{
		Base:    events.Base{Actor: actorOf(user), ProjectID: task.ProjectID, At: time.Now()},
		TaskID:  taskID,
		Comment: commentSnapshot(comment),
	})
	c.JSON(http.StatusCreated, comment)
}
