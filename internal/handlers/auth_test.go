package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/handlers/dto"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/pkg/auth"
)

// idUsers выдает id при сохранении, как это делает postgres.
type idUsers struct{ memUsers }

func (m idUsers) SaveUser(ctx context.Context, u *models.User) error {
	u.ID = uuid.New()
	return m.memUsers.SaveUser(ctx, u)
}

type revokedSet map[string]bool

func (r revokedSet) Revoke(_ context.Context, token string) error {
	r[token] = true
	return nil
}

// jwtDirectory минимальный UserDirectory поверх JWT и revokedSet.
type jwtDirectory struct {
	jwt     *auth.JWTManager
	users   memUsers
	revoked revokedSet
}

func (d jwtDirectory) Resolve(ctx context.Context, token string) (*services.UserIdentity, error) {
	claims, err := d.jwt.Verify(token)
	if err != nil {
		return nil, err
	}
	if d.revoked[token] {
		return nil, services.ErrTokenRevoked
	}
	u, err := d.users.GetUser(ctx, uuid.MustParse(claims.Subject))
	if err != nil {
		return nil, services.ErrUnknownSubject
	}
	return &services.UserIdentity{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func TestAuthHandler_RegisterLoginLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := memUsers{}
	revoked := revokedSet{}
	jwt := auth.NewJWTManager("secret", time.Hour)
	h := NewAuthHandler(idUsers{users}, jwt, revoked, zap.NewNop())

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", middleware.AuthMiddleware(jwtDirectory{jwt, users, revoked}), h.Logout)

	post := func(path string, body any, token string) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	creds := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "correct-horse"}

	w := post("/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[dto.AuthResponse](t, w)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "Alice", registered.User.Name)

	w = post("/auth/register", creds, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post("/auth/register", map[string]string{"email": "bad"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/auth/login", map[string]string{"email": "alice@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[dto.AuthResponse](t, w).Token

	w = post("/auth/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, revoked[token])

	w = post("/auth/logout", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked token is rejected")
}
