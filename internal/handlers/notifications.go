package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/realtime"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

type NotificationHandler struct {
	notifications NotificationRepository
	router        *realtime.Router
	log           *zap.Logger
}

func NewNotificationHandler(notifications NotificationRepository, router *realtime.Router, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, router: router, log: logger.Named("notifications")}
}

// List последние уведомления. ?unread=true оставляет только непрочитанные.
func (h *NotificationHandler) List(c *gin.Context) {
	limit := defaultNotificationLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxNotificationLimit {
			limit = parsed
		}
	}
	unreadOnly := c.Query("unread") == "true"

	items, err := h.notifications.ListNotifications(c.Request.Context(), middleware.CurrentUserID(c), unreadOnly, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkRead идет через тот же путь, что и notification:read от сокета.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ev := events.NotificationRead{
		Base:           events.Base{Actor: actorOf(middleware.CurrentUser(c)), At: time.Now()},
		NotificationID: id,
	}
	if err := h.router.Publish(c.Request.Context(), ev, originConn(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.notifications.DeleteNotification(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
