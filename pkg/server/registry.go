package server

import (
	"log/slog"
	"net"
	"sync"
)

// Registry is the mutex-guarded set of live client connections. Sessions
// are added at accept time and removed exactly once on termination;
// CloseAll force-closes everything during coordinated shutdown. No caller
// touches the map without holding the lock.
type Registry struct {
	mu    sync.Mutex
	conns map[string]net.Conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]net.Conn)}
}

// Add registers a live connection under its session ID.
func (r *Registry) Add(id string, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
}

// Remove deregisters a connection. Removing an unknown ID is a no-op, so
// every session exit path can call it unconditionally.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll force-closes every registered connection. Close failures are
// logged as warnings and do not abort the remaining closes.
func (r *Registry) CloseAll(log *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conn := range r.conns {
		if err := conn.Close(); err != nil {
			log.Warn("failed to close client connection", "session", id, "error", err)
		}
		delete(r.conns, id)
	}
}
