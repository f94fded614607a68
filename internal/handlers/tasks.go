package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/handlers/dto"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/realtime"
)

// TaskHandler HTTP мутации задач: проверка прав, запись, затем публикация события.
type TaskHandler struct {
	tasks  TaskRepository
	guard  *access.Guard
	router *realtime.Router
	log    *zap.Logger
}

func NewTaskHandler(tasks TaskRepository, guard *access.Guard, router *realtime.Router, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, guard: guard, router: router, log: logger.Named("tasks")}
}

func (h *TaskHandler) List(c *gin.Context) {
	projectID, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.guard.Require(ctx, middleware.CurrentUserID(c), projectID, access.RoleViewer); err != nil {
		respondError(c, h.log, err)
		return
	}

	tasks, err := h.tasks.ListProjectTasks(ctx, projectID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	projectID, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	if err := h.guard.Require(ctx, user.ID, projectID, access.RoleMember); err != nil {
		respondError(c, h.log, err)
		return
	}

	task := &models.Task{
		ProjectID:   projectID,
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Order:       req.Order,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		CreatedByID: user.ID,
	}
	if err := h.tasks.CreateTask(ctx, task); err != nil {
		respondError(c, h.log, err)
		return
	}

	publish(ctx, h.router, h.log, c, events.TaskCreated{
		Base: events.Base{Actor: actorOf(user), ProjectID: projectID, At: time.Now()},
		Task: taskSnapshot(task),
	})
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	current, ok := h.authorizeTask(c, user.ID, access.RoleMember)
	if !ok {
		return
	}

	fields := make(map[string]any)
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}

	var changes events.TaskChanges
	switch {
	case req.Unassign && current.AssigneeID != nil:
		fields["assignee_id"] = nil
	case req.AssigneeID != nil && (current.AssigneeID == nil || *current.AssigneeID != *req.AssigneeID):
		fields["assignee_id"] = *req.AssigneeID
		changes.AssigneeID = req.AssigneeID
	}

	if raw, err := json.Marshal(fields); err == nil {
		changes.Fields = raw
	}

	task, err := h.tasks.UpdateTask(ctx, current.ID, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	publish(ctx, h.router, h.log, c, events.TaskUpdated{
		Base:    events.Base{Actor: actorOf(user), ProjectID: task.ProjectID, At: time.Now()},
		Task:    taskSnapshot(task),
		Changes: changes,
	})
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Move(c *gin.Context) {
	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	current, ok := h.authorizeTask(c, user.ID, access.RoleMember)
	if !ok {
		return
	}

	task, from, err := h.tasks.MoveTask(ctx, current.ID, req.ColumnID, req.Order)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	publish(ctx, h.router, h.log, c, events.TaskMoved{
		Base:         events.Base{Actor: actorOf(user), ProjectID: task.ProjectID, At: time.Now()},
		TaskID:       task.ID,
		FromColumnID: from,
		ToColumnID:   req.ColumnID,
	})
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	current, ok := h.authorizeTask(c, user.ID, access.RoleManager)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(ctx, current.ID); err != nil {
		respondError(c, h.log, err)
		return
	}

	publish(ctx, h.router, h.log, c, events.TaskDeleted{
		Base:   events.Base{Actor: actorOf(user), ProjectID: current.ProjectID, At: time.Now()},
		TaskID: current.ID,
	})
	c.Status(http.StatusNoContent)
}

// authorizeTask загружает задачу из :id и проверяет уровень в ее проекте.
func (h *TaskHandler) authorizeTask(c *gin.Context, userID uuid.UUID, level access.Role) (*models.Task, bool) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}

	ctx := c.Request.Context()
	task, err := h.tasks.GetTask(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if err := h.guard.Require(ctx, userID, task.ProjectID, level); err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return task, true
}

// publish раздает событие после успешной записи. Изменение уже сохранено,
// поэтому ошибки рассылки только логируются.
func publish(ctx context.Context, router *realtime.Router, log *zap.Logger, c *gin.Context, ev events.DomainEvent) {
	err := router.Publish(ctx, ev, originConn(c))
	switch {
	case err == nil:
	case errors.Is(err, realtime.ErrPartialDelivery):
		log.Warn("event delivered partially", zap.Stringer("kind", ev.Kind()), zap.Error(err))
	default:
		log.Error("publish failed", zap.Stringer("kind", ev.Kind()), zap.Error(err))
	}
}
