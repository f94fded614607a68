package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/realtime"
	ws "github.com/thereayou/taskflow/internal/websocket"
	"github.com/thereayou/taskflow/pkg/auth"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	connector *ws.Connector
	router    *realtime.Router
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

// NewWebSocketHandler создает новый WebSocket handler. Пустой allowedOrigins пропускает любой origin.
func NewWebSocketHandler(connector *ws.Connector, router *realtime.Router, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &WebSocketHandler{
		connector: connector,
		router:    router,
		log:       logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// HandleWebSocket поднимает транспорт и проводит рукопожатие. Токен
// берется из заголовка, query или первого кадра auth.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := auth.ExtractToken(c.Request)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	// Соединение живет дольше HTTP запроса
	ctx := context.WithoutCancel(c.Request.Context())

	client, err := h.connector.Accept(ctx, conn, token)
	if err != nil {
		return
	}

	go client.WritePump()
	go client.ReadPump(ctx, h.router)
}

type RealtimeHandler struct {
	connector *ws.Connector
	hub       *ws.Hub
	log       *zap.Logger
}

func NewRealtimeHandler(connector *ws.Connector, hub *ws.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{connector: connector, hub: hub, log: logger.Named("realtime")}
}

// Refresh перечитывает членство вызывающего пользователя и обновляет комнаты его соединений.
func (h *RealtimeHandler) Refresh(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.connector.Refresh(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": len(h.hub.UserConnections(userID))})
}
