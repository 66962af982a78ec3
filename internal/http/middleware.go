package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"home-budget/internal/auth"
	"home-budget/internal/domain"
	"home-budget/internal/service"
)

const currentUserKey = "currentUser"

// unauthorizedBody is the single response for every 401 sub-case: missing
// header, bad signature, expired token, unknown subject, bad credentials.
// Nothing may reveal which one occurred.
var unauthorizedBody = gin.H{"error": "invalid or missing credentials"}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func loggingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Info("request")
	}
}

// authMiddleware resolves the bearer token to a user once per request. The
// resolved user is the only source of the user id for everything downstream.
func authMiddleware(tokens *auth.TokenService, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
			return
		}

		subject, err := tokens.Decode(strings.TrimSpace(tokenStr))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
			return
		}

		// A well-formed token whose subject no longer exists is just as
		// invalid as a tampered one.
		user, err := users.GetByEmail(c.Request.Context(), subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
