// Package session binds logical identities to live connections, one
// connection per identity per role namespace, and pushes best-effort events
// to them.
package session

import (
	"log/slog"
	"sync"

	"gamehub/internal/lobby/protocol"
)

// Conn is the slice of a connection the registry needs: identified, writable
// and closable. Implementations must be comparable (pointers are).
type Conn interface {
	ID() string
	SendEvent(evt *protocol.Event) error
	Close() error
}

// Registry maps usernames to live connections for one role namespace.
// Player and developer sessions are independent Registry instances.
type Registry struct {
	role string

	mu     sync.Mutex
	byName map[string]Conn
	byConn map[Conn]string
}

func NewRegistry(role string) *Registry {
	return &Registry{
		role:   role,
		byName: make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Bind installs c as the live connection for username. A previously bound
// connection is sent a single force_logout event and closed; both are
// best-effort. Bind never fails.
func (r *Registry) Bind(username string, c Conn) {
	r.mu.Lock()
	old := r.byName[username]
	if old == c {
		r.mu.Unlock()
		return
	}
	if old != nil {
		delete(r.byConn, old)
	}
	r.byName[username] = c
	r.byConn[c] = username
	r.mu.Unlock()

	if old != nil {
		evt := &protocol.Event{Cmd: protocol.EvtForceLogout, Message: "logged in from another location"}
		if err := old.SendEvent(evt); err != nil {
			slog.Debug("force_logout send failed", "role", r.role, "user", username, "err", err)
		}
		old.Close()
		slog.Info("session evicted", "role", r.role, "user", username, "conn", old.ID())
	}
}

// UnbindConn removes the mapping held by c, if c is still the registered
// connection for its identity. It returns the username and whether c was
// current; a stale, already-evicted connection unbinds nothing.
func (r *Registry) UnbindConn(c Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, ok := r.byConn[c]
	if !ok {
		return "", false
	}
	delete(r.byConn, c)
	delete(r.byName, username)
	return username, true
}

// NameOf returns the identity bound to c, if any.
func (r *Registry) NameOf(c Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, ok := r.byConn[c]
	return username, ok
}

// ConnOf returns the live connection for username, if any.
func (r *Registry) ConnOf(username string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[username]
	return c, ok
}

// Conns snapshots every live connection in the namespace.
func (r *Registry) Conns() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]Conn, 0, len(r.byConn))
	for c := range r.byConn {
		conns = append(conns, c)
	}
	return conns
}
