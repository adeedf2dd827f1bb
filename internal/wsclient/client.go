// Package wsclient implements the consumer-side reconnection agent: it
// opens a realtime connection, watches for close and error events, and
// re-attempts the connection on a fixed delay for as long as it is running.
package wsclient

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"discussion-service/internal/middleware"
	"discussion-service/internal/models"
)

// State of the agent. There are exactly two: the agent is either holding a
// live connection or waiting to retry.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

// DefaultRetryDelay is the fixed pause between reconnect attempts. There is
// no backoff growth and no retry limit.
const DefaultRetryDelay = 5 * time.Second

var ErrNotConnected = errors.New("not connected")

// Config configures an Agent.
type Config struct {
	// URL of the gateway, e.g. ws://host:8086/ws.
	URL string
	// SessionID is sent as the session cookie during the handshake.
	SessionID string
	// RetryDelay overrides DefaultRetryDelay; useful in tests.
	RetryDelay time.Duration
	// OnStateChange, if set, is called on every state transition. Drives
	// the "disconnected" indicator in a UI.
	OnStateChange func(State)
}

// Agent maintains one realtime connection with automatic reconnects. It
// owns a single retry timer: the timer is cleared on every transition into
// connected and on Close, so no reconnect can fire after teardown.
type Agent struct {
	cfg    Config
	dialer *websocket.Dialer
	events chan models.Event

	mu     sync.Mutex
	conn   *websocket.Conn
	timer  *time.Timer
	closed bool
}

// New builds an Agent. Call Start to begin connecting.
func New(cfg Config) *Agent {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Agent{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		events: make(chan models.Event, 64),
	}
}

// Start begins the first connection attempt.
func (a *Agent) Start() {
	go a.connect()
}

// Events delivers envelopes received from the gateway.
func (a *Agent) Events() <-chan models.Event {
	return a.events
}

// Send writes one envelope on the live connection.
func (a *Agent) Send(env models.Envelope) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.WriteJSON(env)
}

// Close tears the agent down: the live connection (if any) is closed and
// any pending reconnect timer is cleared. Both always run.
func (a *Agent) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (a *Agent) connect() {
	header := http.Header{}
	header.Set("Cookie", middleware.SessionCookieName+"="+a.cfg.SessionID)

	conn, resp, err := a.dialer.Dial(a.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		log.Printf("wsclient dial failed: %v", err)
		a.scheduleReconnect()
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		conn.Close()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.conn = conn
	a.mu.Unlock()

	a.setState(StateConnected)
	a.readLoop(conn)
}

func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("wsclient decode failed: %v", err)
			continue
		}
		a.deliver(event)
	}

	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
	}
	closed := a.closed
	a.mu.Unlock()
	conn.Close()

	if !closed {
		a.scheduleReconnect()
	}
}

func (a *Agent) scheduleReconnect() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.cfg.RetryDelay, a.connect)
	a.mu.Unlock()

	a.setState(StateDisconnected)
}

func (a *Agent) deliver(event models.Event) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	select {
	case a.events <- event:
	default:
		log.Printf("wsclient event queue full, dropping %s", event.Type)
	}
}

func (a *Agent) setState(state State) {
	if a.cfg.OnStateChange != nil {
		a.cfg.OnStateChange(state)
	}
}
