package websocket

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

var (
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrInvalidConnection = errors.New("invalid connection")
)

// Conn is a live transport connection. It belongs to exactly one user for its
// whole lifetime.
type Conn interface {
	ID() string
	UserID() string
	// Send queues one encoded frame. It must not block on the network.
	Send(data []byte) error
}

// Registry maps user IDs to their live connections. A user may be connected
// from several devices at once.
//
// A user key exists if and only if the user has at least one connection, so
// "unknown user" and "user with zero connections" are indistinguishable.
// Registry is safe for concurrent use; every read returns a snapshot.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]Conn
	conns int
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]Conn),
	}
}

// Register adds conn to the user's connection set. The handle must belong to
// userID. Registering the same connection twice is a no-op. It reports whether
// the user just came online.
func (r *Registry) Register(userID string, conn Conn) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrInvalidUserID
	}
	if conn == nil || conn.ID() == "" || conn.UserID() != userID {
		return false, ErrInvalidConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, online := r.users[userID]
	if !online {
		set = make(map[string]Conn)
		r.users[userID] = set
	}
	if _, exists := set[conn.ID()]; !exists {
		set[conn.ID()] = conn
		r.conns++
	}
	return !online, nil
}

// Unregister removes a connection and drops the user key once the set is
// empty. Unknown users or connections are ignored so that disconnect races are
// harmless. It reports whether the user just went offline.
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		return false
	}
	if _, exists := set[connID]; !exists {
		return false
	}

	delete(set, connID)
	r.conns--
	if len(set) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

// ConnectionsFor returns a copy of the user's current connections.
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// OnlineUserIDs returns the sorted IDs of every user with a live connection.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.users))
	for userID := range r.users {
		out = append(out, userID)
	}
	r.mu.RUnlock()

	slices.Sort(out)
	return out
}

// AllConnections returns a copy of every live connection.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, r.conns)
	for _, set := range r.users {
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// Stats returns the number of online users and live connections.
func (r *Registry) Stats() (users, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), r.conns
}
