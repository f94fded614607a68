package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/pkg/auth"
	"go.uber.org/zap"
)

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (m *memRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[token] = ttl
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[token]
	return ok, nil
}

type memUsers map[uuid.UUID]*models.User

func (m memUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return u, nil
}

func TestDirectory_Resolve(t *testing.T) {
	ctx := context.Background()
	jwt := auth.NewJWTManager("secret", time.Hour)
	revs := &memRevocations{revoked: make(map[string]time.Duration)}

	active := &models.User{ID: uuid.New(), Name: "alice", Email: "alice@example.com", IsActive: true}
	inactive := &models.User{ID: uuid.New(), Name: "bob"}
	users := memUsers{active.ID: active, inactive.ID: inactive}
	dir := New(jwt, revs, users, zap.NewNop())

	token, err := jwt.Generate(active.ID.String())
	require.NoError(t, err)

	identity, err := dir.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, services.UserIdentity{ID: active.ID, Name: "alice", Email: "alice@example.com"}, *identity)

	t.Run("inactive user", func(t *testing.T) {
		token, err := jwt.Generate(inactive.ID.String())
		require.NoError(t, err)
		_, err = dir.Resolve(ctx, token)
		assert.ErrorIs(t, err, services.ErrUserInactive)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := jwt.Generate(uuid.NewString())
		require.NoError(t, err)
		_, err = dir.Resolve(ctx, token)
		assert.ErrorIs(t, err, services.ErrUnknownSubject)

		token, err = jwt.Generate("not-a-uuid")
		require.NoError(t, err)
		_, err = dir.Resolve(ctx, token)
		assert.ErrorIs(t, err, services.ErrUnknownSubject)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "garbage")
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, dir.Revoke(ctx, token))
		assert.Greater(t, revs.revoked[token], 59*time.Minute)

		_, err := dir.Resolve(ctx, token)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})

	t.Run("redis down", func(t *testing.T) {
		fresh, err := jwt.Generate(active.ID.String())
		require.NoError(t, err)
		revs.err = errors.New("connection refused")
		defer func() { revs.err = nil }()

		_, err = dir.Resolve(ctx, fresh)
		assert.ErrorIs(t, err, services.ErrAuthentication)
	})
}
