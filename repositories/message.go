package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"nexus-gateway/domain"
	"nexus-gateway/errors"
)

// MessageRepository is the BadgerDB-backed durable message store. The
// gateway only appends; history retrieval belongs to the out-of-scope
// query endpoints.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type storedMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendMessage assigns the message its id and timestamp and persists it.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Keep a room's messages chronologically sorted under a prefix scan
//     (19-digit zero padding aligns lexicographic and numeric order).
//  2. Prevent data loss by using the UUID as a collision disambiguator if
//     two messages arrive at the same nanosecond.
func (m MessageRepository) AppendMessage(_ context.Context, message domain.ChatMessage) (domain.ChatMessage, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()

	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.RoomID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	value, err := json.Marshal(fromChatMessage(message))
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		m.log.Error("Message write failed", "room_id", message.RoomID, "error", err)
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return message, nil
}

// CountByRoom returns the number of stored messages for a room. Used by
// tests and the seed tool; the fan-out path never reads back.
func (m MessageRepository) CountByRoom(roomID string) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func fromChatMessage(message domain.ChatMessage) storedMessage {
	return storedMessage{
		ID:        message.ID.String(),
		RoomID:    message.RoomID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}
