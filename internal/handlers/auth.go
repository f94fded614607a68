package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/handlers/dto"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/pkg/auth"
)

type AuthHandler struct {
	users      UserRepository
	jwtManager *auth.JWTManager
	revoker    TokenRevoker
	log        *zap.Logger
}

func NewAuthHandler(users UserRepository, jwtMgr *auth.JWTManager, revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtMgr, revoker: revoker, log: logger.Named("auth")}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.FindUserByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(err, services.ErrNotFound) {
		respondError(c, h.log, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
		return
	}

	now := time.Now()
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		LastSeenAt:   now,
		CreatedAt:    now,
	}
	if err := h.users.SaveUser(ctx, user); err != nil {
		h.log.Warn("register failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create user"})
		return
	}

	h.issue(c, http.StatusCreated, user)
}

// Login выдаёт JWT и обновляет last_seen
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		return
	}

	if err := h.users.UpdateLastSeen(ctx, user.ID); err != nil {
		h.log.Warn("update last seen", zap.Stringer("user", user.ID), zap.Error(err))
	}

	h.issue(c, http.StatusOK, user)
}

// Logout отзывает текущий токен до его истечения
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if err := h.revoker.Revoke(c.Request.Context(), token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, err := h.jwtManager.Generate(user.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	exp, err := h.jwtManager.Expiry(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(status, dto.AuthResponse{
		Token:          token,
		TokenExpiresAt: exp,
		User:           userInfo(user),
	})
}

func userInfo(u *models.User) dto.UserInfo {
	return dto.UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}
