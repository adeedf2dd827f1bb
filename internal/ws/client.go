package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"discussion-service/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// Ping interval; must be shorter than pongWait.
	pingPeriod = 54 * time.Second
	// Outbound queue size per connection.
	sendBuffer = 256
)

// Client is one authenticated websocket connection. Outbound events go
// through a buffered channel drained by the write pump, so fan-out never
// blocks on a slow peer.
type Client struct {
	conn        *websocket.Conn
	send        chan []byte
	userID      int
	username    string
	connID      string
	connectedAt time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, userID int, username string) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		userID:      userID,
		username:    username,
		connID:      newConnID(),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// UserID returns the authenticated user id of this connection.
func (c *Client) UserID() int { return c.userID }

// Username returns the authenticated username of this connection.
func (c *Client) Username() string { return c.username }

// Enqueue queues an event for delivery. Delivery is fire-and-forget: a full
// queue means the peer is too slow and the connection is closed instead of
// blocking the sender.
func (c *Client) Enqueue(event models.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws marshal error: %v", err)
		return false
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		log.Printf("ws send queue full, closing conn=%s user=%d", c.connID, c.userID)
		c.Close()
		return false
	}
}

// Close shuts the connection down. Safe to call from any goroutine and more
// than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump reads envelopes and hands them to handle one at a time, which
// gives each connection strict FIFO processing. It returns the error that
// ended the connection.
func (c *Client) readPump(handle func(raw []byte)) error {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		handle(raw)
	}
}

// writePump drains the send queue and keeps the connection alive with
// periodic pings. A missed pong expires the read deadline, which surfaces
// in readPump as a close.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
