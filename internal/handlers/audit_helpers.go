package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "requestID"

// requestIDFromContext returns a stable correlation id for the request:
// the edge's X-Request-Id when present, otherwise one generated on first
// use and cached in the gin context.
func requestIDFromContext(c *gin.Context) string {
	if id, ok := c.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	id := c.GetHeader("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	return id
}

// userIDFromContext reads the user id the session middleware stored, nil
// for unauthenticated requests.
func userIDFromContext(c *gin.Context) *int64 {
	val, ok := c.Get("userID")
	if !ok {
		return nil
	}
	id, ok := val.(int)
	if !ok || id == 0 {
		return nil
	}
	v := int64(id)
	return &v
}
