package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-room-service/internal/middleware"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func memberIDFromContext(c *gin.Context) *string {
	if id := c.GetString(middleware.MemberIDContextKey); id != "" {
		return &id
	}
	if header := c.GetHeader("X-Member-ID"); header != "" {
		return &header
	}
	return nil
}
