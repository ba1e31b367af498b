package gateway

import (
	"encoding/json"
	"log/slog"
)

// Broadcaster resolves a room to the live connections of its present
// identities and delivers a payload to each of them.
type Broadcaster struct {
	log      *slog.Logger
	registry *Registry
	presence *Presence
}

func NewBroadcaster(log *slog.Logger, registry *Registry, presence *Presence) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, presence: presence}
}

// Publish fans out an envelope to every live connection of every identity
// present in the room, excluding one identity entirely. Exclusion is by
// identity, not connection: all connections of excludeUserID are skipped.
// Delivery is fire-and-forget; a connection whose send buffer is full
// just misses the frame.
func (b *Broadcaster) Publish(roomID string, envelope any, excludeUserID string) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		b.log.Error("Envelope marshal failed", "room_id", roomID, "error", err)
		return
	}

	for _, userID := range b.presence.MembersOf(roomID) {
		if userID == excludeUserID {
			continue
		}
		for _, sess := range b.registry.ConnectionsOf(userID) {
			if !sess.TrySend(payload) {
				b.log.Debug("Frame dropped, send buffer full",
					"room_id", roomID,
					"user_id", userID,
					"connection_id", sess.ID())
			}
		}
	}
}
