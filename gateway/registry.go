package gateway

import "sync"

// Registry tracks the live connections of each authenticated identity.
//
// Invariant: an identity has an entry iff at least one of its connections
// has registered and not yet unregistered; the entry is deleted once its
// connection set empties. All mutation is atomic with respect to the
// reads performed during fan-out.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session // identity id -> connection id -> session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[string]*Session)}
}

// Register adds a connection to an identity's session set.
func (r *Registry) Register(userID string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; !ok {
		r.sessions[userID] = make(map[string]*Session)
	}
	r.sessions[userID][sess.ID()] = sess
}

// Unregister removes a connection from an identity's session set and
// deletes the identity entry once the set is empty. Unregistering a
// connection that is not present is a no-op.
func (r *Registry) Unregister(userID string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(conns, sess.ID())
	if len(conns) == 0 {
		delete(r.sessions, userID)
	}
}

// ConnectionsOf returns the live connections of an identity. Connections
// that have begun closing but not yet unregistered are skipped silently.
func (r *Registry) ConnectionsOf(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	var live []*Session
	for _, sess := range conns {
		if sess.Open() {
			live = append(live, sess)
		}
	}
	return live
}

// Counts reports the number of registered identities and connections.
func (r *Registry) Counts() (identities, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, conns := range r.sessions {
		connections += len(conns)
	}
	return len(r.sessions), connections
}
