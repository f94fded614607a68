// Package directory разрешает bearer токены в пользователей.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/pkg/auth"
	"go.uber.org/zap"
)

// UserStore источник пользователей.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Directory проверяет подпись токена, список отзыва и активность пользователя.
type Directory struct {
	jwt         *auth.JWTManager
	revocations Revocations
	users       UserStore
	log         *zap.Logger
}

func New(jwt *auth.JWTManager, revocations Revocations, users UserStore, logger *zap.Logger) *Directory {
	return &Directory{
		jwt:         jwt,
		revocations: revocations,
		users:       users,
		log:         logger.Named("directory"),
	}
}

func (d *Directory) Resolve(ctx context.Context, token string) (*services.UserIdentity, error) {
	claims, err := d.jwt.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := d.revocations.IsRevoked(ctx, token)
	if err != nil {
		// Без redis нельзя доказать, что токен не отозван
		d.log.Error("revocation lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: revocation lookup: %v", services.ErrAuthentication, err)
	}
	if revoked {
		return nil, services.ErrTokenRevoked
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, services.ErrUnknownSubject
	}

	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, services.ErrUnknownSubject
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, services.ErrUserInactive
	}

	return &services.UserIdentity{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Revoke отзывает токен до момента его истечения.
func (d *Directory) Revoke(ctx context.Context, token string) error {
	exp, err := d.jwt.Expiry(token)
	if err != nil {
		return err
	}
	return d.revocations.Revoke(ctx, token, time.Until(exp))
}
