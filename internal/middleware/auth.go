package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-room-service/internal/auth"
)

// MemberIDContextKey is where the authenticated member id is stored.
const MemberIDContextKey = "memberID"

// AuthMiddleware validates the Authorization header with the token
// decoder and stores the member id on the request context.
func AuthMiddleware(decoder auth.TokenDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		memberID, err := decoder.DecodeToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(MemberIDContextKey, memberID)
		c.Next()
	}
}
