package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/websocket"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
	}{
		{services.ErrTokenExpired, http.StatusUnauthorized},
		{&access.Denial{Reason: access.InsufficientRole, Required: access.RoleManager, Held: access.RoleMember}, http.StatusForbidden},
		{fmt.Errorf("lookup: %w", services.ErrNotFound), http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("refresh: %w", websocket.ErrMembershipLookup), http.StatusServiceUnavailable},
		{errInvalidID, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}
