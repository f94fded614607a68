package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/services"
	"go.uber.org/zap"
)

// ConnectorConfig параметры рукопожатия.
type ConnectorConfig struct {
	HandshakeTimeout  time.Duration
	MembershipRetries uint64
	RetryDelay        time.Duration
}

func DefaultConnectorConfig() ConnectorConfig {
	return ConnectorConfig{
		HandshakeTimeout:  10 * time.Second,
		MembershipRetries: 3,
		RetryDelay:        500 * time.Millisecond,
	}
}

// Connector проводит соединение через Connecting -> Authenticated -> Joined.
// Все обращения к внешним сервисам завершаются до захвата блокировки Hub.
type Connector struct {
	hub         *Hub
	users       services.UserDirectory
	memberships services.MembershipStore
	cfg         ConnectorConfig
	log         *zap.Logger
}

func NewConnector(hub *Hub, users services.UserDirectory, memberships services.MembershipStore, cfg ConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		hub:         hub,
		users:       users,
		memberships: memberships,
		cfg:         cfg,
		log:         logger.Named("connector"),
	}
}

// Connect аутентифицирует токен и регистрирует соединение во всех комнатах.
// conn может быть nil.
func (c *Connector) Connect(ctx context.Context, token string, conn *websocket.Conn) (*Client, error) {
	authCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	identity, err := c.users.Resolve(authCtx, token)
	cancel()
	if err != nil {
		if errors.Is(authCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", services.ErrAuthentication, ErrHandshakeTimeout)
		}
		return nil, err
	}

	client := NewClient(c.hub, conn, *identity)

	projects, err := c.listProjects(ctx, identity.ID)
	if err != nil {
		client.markDisconnected()
		return nil, err
	}

	if err := c.hub.Register(client, projects); err != nil {
		client.markDisconnected()
		return nil, err
	}
	return client, nil
}

// Accept выполняет рукопожатие поверх уже открытого транспорта. Если токен не
// пришел в заголовке или query, он ожидается первым кадром {"type":"auth"}.
// При отказе транспорт закрывается с общим сообщением об ошибке.
func (c *Connector) Accept(ctx context.Context, conn *websocket.Conn, token string) (*Client, error) {
	if token == "" {
		t, err := c.awaitToken(conn)
		if err != nil {
			c.reject(conn, websocket.ClosePolicyViolation, "authentication failed")
			return nil, err
		}
		token = t
	}

	client, err := c.Connect(ctx, token, conn)
	if err != nil {
		code := websocket.ClosePolicyViolation
		reason := "authentication failed"
		if errors.Is(err, ErrMembershipLookup) {
			code = websocket.CloseTryAgainLater
			reason = "try again later"
		}
		c.log.Info("handshake rejected", zap.Error(err))
		c.reject(conn, code, reason)
		return nil, err
	}
	return client, nil
}

// Refresh перечитывает членство пользователя и приводит к нему комнаты
// всех его соединений. Неявно не вызывается.
func (c *Connector) Refresh(ctx context.Context, userID uuid.UUID) error {
	projects, err := c.listProjects(ctx, userID)
	if err != nil {
		return err
	}
	joined, left := c.hub.Reconcile(userID, projects)
	c.log.Debug("memberships refreshed",
		zap.Stringer("user", userID),
		zap.Int("joined", joined),
		zap.Int("left", left),
	)
	return nil
}

func (c *Connector) listProjects(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	backoff := retry.WithMaxRetries(c.cfg.MembershipRetries, retry.NewConstant(c.cfg.RetryDelay))

	var projects []uuid.UUID
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ids, err := c.memberships.ListProjectsFor(ctx, userID)
		if err != nil {
			c.log.Warn("membership lookup failed", zap.Stringer("user", userID), zap.Error(err))
			return retry.RetryableError(err)
		}
		projects = ids
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMembershipLookup, err)
	}
	return projects, nil
}

func (c *Connector) awaitToken(conn *websocket.Conn) (string, error) {
	if conn == nil {
		return "", services.ErrMissingToken
	}

	conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("%w: %w", services.ErrAuthentication, ErrHandshakeTimeout)
	}
	if msg.Type != events.AuthName {
		return "", services.ErrMissingToken
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := decodeData(&msg, &payload); err != nil || payload.Token == "" {
		return "", services.ErrMissingToken
	}
	return payload.Token, nil
}

func (c *Connector) reject(conn *websocket.Conn, code int, reason string) {
	if conn == nil {
		return
	}
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
