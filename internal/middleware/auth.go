package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"discussion-service/internal/repositories"
)

// SessionCookieName is the cookie set by the platform's login flow. Both the
// HTTP routes and the websocket handshake read it.
const SessionCookieName = "session_id"

// SessionAuth resolves the session cookie against the session store and
// stores the authenticated user id on the request context.
func SessionAuth(sessions repositories.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}

		session, err := sessions.Load(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set("userID", session.UserID)
		c.Next()
	}
}
