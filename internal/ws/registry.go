package ws

import "sync"

// Registry is the single source of truth for which users are currently
// reachable over a live websocket. It holds at most one client per user id:
// a new connection for a user replaces the previous one. The registry is
// in-memory only; after a restart clients re-handshake.
type Registry struct {
	mu      sync.RWMutex
	clients map[int]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int]*Client)}
}

// Set registers the client for its user id and returns the client it
// replaced, if any, so the caller can close the superseded connection.
func (r *Registry) Set(userID int, client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.clients[userID]
	if prev == client {
		return nil
	}
	r.clients[userID] = client
	return prev
}

// Get returns the live client for a user id.
func (r *Registry) Get(userID int) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[userID]
	return client, ok
}

// Remove deletes the entry for userID only if it still points at this exact
// client. A close handler of a superseded connection must not evict the
// newer one.
func (r *Registry) Remove(userID int, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[userID]; ok && current == client {
		delete(r.clients, userID)
		return true
	}
	return false
}

// ForEach calls fn for every registered client. Iteration happens over a
// snapshot so fn may enqueue writes without holding the registry lock.
func (r *Registry) ForEach(fn func(client *Client)) {
	r.mu.RLock()
	snapshot := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		snapshot = append(snapshot, client)
	}
	r.mu.RUnlock()

	for _, client := range snapshot {
		fn(client)
	}
}

// Len reports the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
