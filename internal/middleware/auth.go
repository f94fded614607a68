package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/pkg/auth"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
	TokenKey    = "token"
)

// AuthMiddleware проверяет bearer токен через тот же UserDirectory,
// что и websocket рукопожатие.
func AuthMiddleware(users services.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		identity, err := users.Resolve(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, services.ErrAuthentication) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "authentication failed"})
			return
		}

		c.Set(UserIDKey, identity.ID)
		c.Set(IdentityKey, *identity)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// CurrentUser возвращает пользователя, установленного AuthMiddleware.
func CurrentUser(c *gin.Context) services.UserIdentity {
	return c.MustGet(IdentityKey).(services.UserIdentity)
}

func CurrentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}
