// Package gateway multiplexes authenticated connections and routes inbound
// frames to presence tracking, persistence, and fan-out.
package gateway

import (
	"sync"

	"github.com/google/uuid"

	"nexus-gateway/domain"
)

// Session is the gateway-side handle of one transport connection.
//
// The transport read loop hands frames to the gateway one at a time, so
// the handshake state and room bookkeeping below are only ever mutated
// from that single goroutine. The outbound queue is the shared part: the
// broadcaster feeds it from other connections' handlers while the write
// pump drains it.
type Session struct {
	id       string
	user     *domain.User        // nil until the handshake succeeds
	lastRoom string              // last successfully joined room
	rooms    map[string]struct{} // every room joined on this connection

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func NewSession(bufferSize int) *Session {
	return &Session{
		id:    uuid.NewString(),
		rooms: make(map[string]struct{}),
		out:   make(chan []byte, bufferSize),
	}
}

func (s *Session) ID() string {
	return s.id
}

// User returns the bound identity, or nil while unauthenticated.
func (s *Session) User() *domain.User {
	return s.user
}

func (s *Session) Authenticated() bool {
	return s.user != nil
}

// Outbound is drained by the transport write pump. The channel is closed
// when the session closes.
func (s *Session) Outbound() <-chan []byte {
	return s.out
}

// TrySend queues a frame for delivery. It reports false when the session
// is closed or its buffer is full; the frame is then simply lost for this
// connection, never queued elsewhere.
func (s *Session) TrySend(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close marks the session dead and releases the write pump. It reports
// whether this call performed the transition, so overlapping teardown
// paths stay idempotent.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.out)
	return true
}
