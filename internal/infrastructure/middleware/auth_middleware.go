package middleware

import (
	"net/http"
	"strings"

	"syncwatch/internal/core/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextParticipantID = "participant_id"
	ContextDisplayName   = "display_name"
)

// AuthMiddleware requires a valid session token and stores the claims in
// the gin context for handlers downstream.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ContextParticipantID, claims.ParticipantID)
		c.Set(ContextDisplayName, claims.DisplayName)
		c.Next()
	}
}
