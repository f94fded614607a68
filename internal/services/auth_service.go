package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrAuthentication объединяет все причины отказа в аутентификации.
// Сервер не повторяет попытку: клиент должен переподключиться со свежим токеном.
var ErrAuthentication = errors.New("authentication failed")

var (
	ErrMissingToken   = fmt.Errorf("%w: missing token", ErrAuthentication)
	ErrInvalidToken   = fmt.Errorf("%w: invalid token", ErrAuthentication)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrAuthentication)
	ErrTokenRevoked   = fmt.Errorf("%w: token revoked", ErrAuthentication)
	ErrUnknownSubject = fmt.Errorf("%w: unknown subject", ErrAuthentication)
	ErrUserInactive   = fmt.Errorf("%w: user inactive", ErrAuthentication)
)

// UserIdentity аутентифицированный пользователь, закэшированный на соединении.
type UserIdentity struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UserDirectory разрешает bearer токен в пользователя.
// Используется и HTTP middleware, и websocket рукопожатием.
type UserDirectory interface {
	Resolve(ctx context.Context, token string) (*UserIdentity, error)
}
