package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SocketIDHeader id websocket соединения инициатора. Это соединение не получит эхо события.
const SocketIDHeader = "X-Socket-ID"

var errInvalidID = errors.New("invalid id")

// respondError переводит ошибку слоя сервисов в HTTP ответ.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, websocket.ErrMembershipLookup):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again later"})
	case errors.Is(err, errInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

// originConn соединение, с которого пришел HTTP запрос, если клиент его указал.
func originConn(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetHeader(SocketIDHeader))
	if err != nil {
		return uuid.Nil
	}
	return id
}
