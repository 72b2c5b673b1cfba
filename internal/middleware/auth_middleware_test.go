package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(t *testing.T, roles ...string) (*gin.Engine, *utils.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := utils.NewTokenManager("middleware-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", AuthMiddleware(tokens), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "username": c.GetString(ContextUsername)})
	})
	return r, tokens
}

func TestAuthMiddleware(t *testing.T) {
	r, tokens := newProtectedRouter(t, "admin", "staff")
	token, _, err := tokens.GenerateAccessToken(7, "cashier1", "staff")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer not-a-token", status: http.StatusUnauthorized},
		{name: "bearer token", header: "Bearer " + token, status: http.StatusOK},
		{name: "query token", query: "?token=" + token, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRoleAuthMiddleware_Forbidden(t *testing.T) {
	r, tokens := newProtectedRouter(t, "admin")
	token, _, err := tokens.GenerateAccessToken(7, "cashier1", "staff")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}
