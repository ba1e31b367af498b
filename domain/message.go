package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents an immutable chat event. The gateway only ever
// appends messages; ID and CreatedAt are assigned by the store.
type ChatMessage struct {
	ID        uuid.UUID
	RoomID    string
	SenderID  string
	Content   string
	CreatedAt time.Time
}
