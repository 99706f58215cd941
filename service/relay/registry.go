package relay

import "sync"

// ConnRegistry maps a user id to its live sessions. It is a pure in-memory
// data structure with no transport dependency: presence broadcasting and
// delivery live in the server, the registry only mutates state under its
// lock. A user id is a key iff it has at least one live session, so the
// online set is exactly the key set.
type ConnRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // user -> conn_id -> client
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		byUser: make(map[string]map[string]*Client),
	}
}

// Register adds the session under its user id. Sessions without a user id
// are ignored. Registering the same (user, conn) pair twice is absorbed by
// the conn_id keyed map: one deregister then takes the pair out.
func (r *ConnRegistry) Register(c *Client) {
	if c == nil || c.UserID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
}

// Deregister removes one session. Unknown user or conn id is a no-op:
// disconnect races must not fault. Removing the last session removes the
// user key entirely.
func (r *ConnRegistry) Deregister(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.byUser[userID]
	if m == nil {
		return
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(r.byUser, userID)
	}
}

// IsOnline reports whether the user has at least one live session.
func (r *ConnRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// HandlesFor returns a snapshot of the user's live sessions; empty when
// offline. A handle may go stale between lookup and use, pushes to it are
// swallowed at the push boundary.
func (r *ConnRegistry) HandlesFor(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// OnlineUsers returns a snapshot of all user ids with a live session.
func (r *ConnRegistry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}
