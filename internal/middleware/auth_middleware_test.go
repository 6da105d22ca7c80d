package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTest(t *testing.T) (*gin.Engine, *jwt.Service) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtService := jwt.NewService("test-secret", time.Hour)

	router := gin.New()
	router.Use(AuthMiddleware(jwtService, logger))
	router.GET("/protected", func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": actor.Email, "role": string(actor.Role)})
	})

	return router, jwtService
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, jwtService := setupAuthTest(t)

	token, err := jwtService.Generate(uuid.New(), "alice@example.com", "customer", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router, _ := setupAuthTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router, _ := setupAuthTest(t)

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "just-a-token"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q should be rejected", header)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	router, _ := setupAuthTest(t)

	other := jwt.NewService("other-secret", time.Hour)
	token, err := other.Generate(uuid.New(), "alice@example.com", "customer", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_UnknownRole(t *testing.T) {
	router, jwtService := setupAuthTest(t)

	token, err := jwtService.Generate(uuid.New(), "alice@example.com", "superuser", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_StaffActorCarriesBusiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwtService := jwt.NewService("test-secret", time.Hour)

	var captured models.Actor
	router := gin.New()
	router.Use(AuthMiddleware(jwtService, logger))
	router.GET("/protected", func(c *gin.Context) {
		captured, _ = GetActor(c)
		c.Status(http.StatusOK)
	})

	token, err := jwtService.Generate(uuid.New(), "boss@corner.cafe", "manager", "Corner Cafe")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleManager, captured.Role)
	assert.Equal(t, "Corner Cafe", captured.BusinessName)
}
