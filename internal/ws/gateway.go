package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"discussion-service/internal/middleware"
	"discussion-service/internal/models"
	"discussion-service/internal/observability"
	"discussion-service/internal/repositories"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway turns an upgrade request into an authenticated, registered,
// bidirectional channel. Authentication uses the same session cookie the
// HTTP front door reads.
type Gateway struct {
	registry *Registry
	router   *Router
	sessions repositories.SessionRepository
	users    repositories.UserRepository
}

// NewGateway constructs a Gateway.
func NewGateway(registry *Registry, router *Router, sessions repositories.SessionRepository, users repositories.UserRepository) *Gateway {
	return &Gateway{registry: registry, router: router, sessions: sessions, users: users}
}

// Handle authenticates and upgrades a websocket connection.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("discussion-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	sessionID, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	session, err := g.sessions.Load(ctx, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	user, err := g.users.GetUser(ctx, session.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// The request context dies as soon as this handler returns, which is
	// long before the socket closes. Envelope handling and lifecycle events
	// run on a connection-scoped context that keeps the trace values but
	// not the cancellation.
	connCtx := context.WithoutCancel(ctx)

	client := newClient(conn, user.ID, user.Username)
	if prev := g.registry.Set(client.userID, client); prev != nil {
		// A reconnect supersedes the old socket; close it instead of
		// leaving it orphaned.
		prev.Close()
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	identity := observability.IdentityFromRequest(c.Request, client.userID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	observability.PublishWSEvent(ctx, "ws_connect", client.connID, 0, "", identity, requestID, traceID)

	client.Enqueue(models.Event{Type: models.EventConnected})

	go client.writePump()
	go func() {
		defer func() {
			g.registry.Remove(client.userID, client)
			client.Close()
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
		}()

		err := client.readPump(func(raw []byte) {
			g.router.Dispatch(connCtx, client, raw)
		})

		var closeReason string
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				observability.PublishWSEvent(connCtx, "ws_error", client.connID, time.Since(client.connectedAt).Milliseconds(), closeReason, identity, requestID, traceID)
			}
		}
		observability.PublishWSEvent(connCtx, "ws_disconnect", client.connID, time.Since(client.connectedAt).Milliseconds(), closeReason, identity, requestID, traceID)
		log.Printf("ws closed conn=%s user=%d reason=%q", client.connID, client.userID, closeReason)
	}()
}
