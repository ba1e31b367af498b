package gateway

import (
	"sync"

	"github.com/samber/lo"
)

// Presence tracks which identities are currently present in which rooms.
//
// Presence is in-memory and distinct from the durable membership records
// held by the identity store: an identity becomes present only after an
// authorized join, may be present in several rooms at once, and removal
// on disconnect is best-effort.
type Presence struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room id -> identity ids
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[string]map[string]struct{})}
}

// Join marks an identity present in a room. The caller must have verified
// durable membership first.
func (p *Presence) Join(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.rooms[roomID]; !ok {
		p.rooms[roomID] = make(map[string]struct{})
	}
	p.rooms[roomID][userID] = struct{}{}
}

// Leave removes an identity from a room's presence set. Empty sets are
// deleted so stale rooms do not accumulate over time.
func (p *Presence) Leave(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	members, ok := p.rooms[roomID]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(p.rooms, roomID)
	}
}

// MembersOf returns a snapshot of the identities present in a room.
func (p *Presence) MembersOf(roomID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members, ok := p.rooms[roomID]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

// RoomCount reports the number of rooms with at least one present identity.
func (p *Presence) RoomCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rooms)
}
