package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/websocket"
	"go.uber.org/zap"
)

type UserHandler struct {
	users UserRepository
	hub   *websocket.Hub
	log   *zap.Logger
}

func NewUserHandler(users UserRepository, hub *websocket.Hub, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, hub: hub, log: logger.Named("users")}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
		"connections":  len(h.hub.UserConnections(userID)),
	})
}

// GetUser возвращает публичную информацию о пользователе по ID
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"avatar_url":   user.AvatarURL,
		"last_seen_at": user.LastSeenAt,
		"online":       h.hub.IsOnline(user.ID),
	})
}
