package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"discussion-service/internal/telemetry"
	"discussion-service/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints: a test hook for the audit
// pipeline and a view of the live connection registry.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, registry *ws.Registry, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/ws-connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"active": registry.Len()})
	})
}
