package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// ActorContextKey is the key used to store the authenticated actor in Gin
// context
const ActorContextKey = "actor"

// AuthMiddleware creates a middleware that validates JWT tokens and attaches
// a typed Actor to the request. The queue core trusts only this value: role
// and business binding come from the validated claims, never from request
// fields.
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid access token",
			})
			c.Abort()
			return
		}

		role := models.Role(claims.Role)
		if !role.Valid() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Unknown role in token",
			})
			c.Abort()
			return
		}

		c.Set(ActorContextKey, models.Actor{
			UserID:       claims.UserID,
			Email:        claims.Email,
			Role:         role,
			BusinessName: claims.BusinessName,
		})

		c.Next()
	}
}

// GetActor retrieves the authenticated actor from Gin context
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
