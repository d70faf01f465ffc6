package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-api/internal/auth"
	"bookstore-api/internal/metrics"
	"bookstore-api/internal/users"
	"bookstore-api/pkg/apperror"
)

type noopTokenStore struct{}

func (noopTokenStore) ReplaceActive(context.Context, string, string, time.Time) error { return nil }
func (noopTokenStore) FindActive(context.Context, string, string) (auth.RefreshToken, error) {
	return auth.RefreshToken{}, apperror.NotFound("refresh token not found")
}
func (noopTokenStore) RevokeAllActive(context.Context, string) error { return nil }

type noopUserStore struct{}

func (noopUserStore) GetActiveUserByEmail(context.Context, string) (users.User, error) {
	return users.User{}, apperror.NotFound("user not found")
}
func (noopUserStore) GetActiveUserByID(context.Context, string) (users.User, error) {
	return users.User{}, apperror.NotFound("user not found")
}

func testHandler(t *testing.T) *Handler {
	t.Helper()
	keys, err := auth.NewKeys("access-secret", "refresh-secret", time.Hour, time.Hour)
	require.NoError(t, err)
	authService, err := auth.NewService(keys, noopTokenStore{}, noopUserStore{})
	require.NoError(t, err)
	return NewHandler(authService, nil, nil, nil, nil, nil, nil, metrics.NewCollector())
}

func TestAPIGinMode(t *testing.T) {
	h := testHandler(t)

	API(h, gin.ReleaseMode)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())

	// Anything else falls back to debug.
	API(h, "staging")
	assert.Equal(t, gin.DebugMode, gin.Mode())
}

func TestAPIHealthAndAuthGate(t *testing.T) {
	router := API(testHandler(t), gin.ReleaseMode)

	t.Run("ping is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("protected route without a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart/items", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
