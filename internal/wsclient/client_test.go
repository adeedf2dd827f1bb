package wsclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"discussion-service/internal/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type testGateway struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	dials  atomic.Int32
	reject atomic.Bool
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	g := &testGateway{conns: make(chan *websocket.Conn, 8)}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.dials.Add(1)
		if g.reject.Load() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.conns <- conn
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *testGateway) url() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws"
}

func (g *testGateway) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-g.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatalf("no connection arrived")
		return nil
	}
}

func waitState(t *testing.T, states <-chan State, want State) {
	t.Helper()
	for {
		select {
		case got := <-states:
			if got == want {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("never reached state %v", want)
		}
	}
}

func newTestAgent(gw *testGateway) (*Agent, chan State) {
	states := make(chan State, 16)
	agent := New(Config{
		URL:           gw.url(),
		SessionID:     "sess-1",
		RetryDelay:    50 * time.Millisecond,
		OnStateChange: func(s State) { states <- s },
	})
	return agent, states
}

func TestAgentConnectsAndDeliversEvents(t *testing.T) {
	gw := newTestGateway(t)
	agent, states := newTestAgent(gw)
	defer agent.Close()

	agent.Start()
	server := gw.accept(t)
	defer server.Close()
	waitState(t, states, StateConnected)

	require.NoError(t, server.WriteJSON(models.Event{Type: models.EventConnected}))

	select {
	case event := <-agent.Events():
		require.Equal(t, models.EventConnected, event.Type)
	case <-time.After(2 * time.Second):
		t.Fatalf("event never delivered")
	}
}

func TestAgentSendsEnvelopes(t *testing.T) {
	gw := newTestGateway(t)
	agent, states := newTestAgent(gw)
	defer agent.Close()

	agent.Start()
	server := gw.accept(t)
	defer server.Close()
	waitState(t, states, StateConnected)

	require.NoError(t, agent.Send(models.Envelope{Type: models.EnvelopeJoinGroup, InviteCode: "AbCdEfGhIjKl"}))

	var env models.Envelope
	require.NoError(t, server.ReadJSON(&env))
	require.Equal(t, models.EnvelopeJoinGroup, env.Type)
	require.Equal(t, "AbCdEfGhIjKl", env.InviteCode)
}

func TestAgentReconnectsAfterClose(t *testing.T) {
	gw := newTestGateway(t)
	agent, states := newTestAgent(gw)
	defer agent.Close()

	agent.Start()
	first := gw.accept(t)
	waitState(t, states, StateConnected)

	first.Close()
	waitState(t, states, StateDisconnected)

	// A fresh attempt fires after the fixed delay, with no backoff growth
	// and no retry cap.
	second := gw.accept(t)
	defer second.Close()
	waitState(t, states, StateConnected)
}

func TestAgentRetriesWhileHandshakeRejected(t *testing.T) {
	gw := newTestGateway(t)
	gw.reject.Store(true)
	agent, states := newTestAgent(gw)
	defer agent.Close()

	agent.Start()
	waitState(t, states, StateDisconnected)

	time.Sleep(200 * time.Millisecond)
	require.GreaterOrEqual(t, gw.dials.Load(), int32(2), "agent keeps retrying indefinitely")

	gw.reject.Store(false)
	server := gw.accept(t)
	defer server.Close()
	waitState(t, states, StateConnected)
}

func TestAgentCloseCancelsPendingReconnect(t *testing.T) {
	gw := newTestGateway(t)
	gw.reject.Store(true)
	agent, states := newTestAgent(gw)

	agent.Start()
	waitState(t, states, StateDisconnected)

	agent.Close()
	time.Sleep(100 * time.Millisecond) // let any in-flight attempt finish
	settled := gw.dials.Load()
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, settled, gw.dials.Load(), "no reconnect may fire after teardown")
}

func TestAgentSendWhileDisconnected(t *testing.T) {
	agent := New(Config{URL: "ws://127.0.0.1:0/ws", SessionID: "sess-1", RetryDelay: time.Hour})
	defer agent.Close()

	err := agent.Send(models.Envelope{Type: models.EnvelopeMessage, VideoID: 1, Content: "hi"})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestAgentNoStateChangeAfterClose(t *testing.T) {
	var calls int32
	agent := New(Config{
		URL:           "ws://127.0.0.1:0/ws",
		SessionID:     "sess",
		RetryDelay:    20 * time.Millisecond,
		OnStateChange: func(State) { atomic.AddInt32(&calls, 1) },
	})

	agent.Close()
	agent.scheduleReconnect()

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&calls))
}
