//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"nexus-gateway/contract"
	"nexus-gateway/domain"
	"nexus-gateway/errors"
	"nexus-gateway/moderation"
	"nexus-gateway/wire"
)

type IMessageService interface {
	Submit(ctx context.Context, roomID string, sender domain.User, content string) (wire.NewMessage, error)
}

// MessageService is the ingestion and persistence gate for chat messages:
// it validates, sanitizes, persists synchronously, and builds the
// enriched payload handed to fan-out. Nothing is fanned out unless the
// message has been durably stored first.
type MessageService struct {
	log        *slog.Logger
	store      contract.IMessageStore
	sanitizer  *moderation.Sanitizer
	maxContent int
}

func NewMessageService(log *slog.Logger, store contract.IMessageStore,
	sanitizer *moderation.Sanitizer, maxContent int) *MessageService {
	return &MessageService{log: log, store: store, sanitizer: sanitizer, maxContent: maxContent}
}

func (s *MessageService) Submit(ctx context.Context, roomID string, sender domain.User, content string) (wire.NewMessage, error) {
	// 1. Validate before touching storage
	if roomID == "" {
		return wire.NewMessage{}, errors.ErrEmptyRoom
	}
	if content == "" {
		return wire.NewMessage{}, errors.ErrEmptyContent
	}
	if s.maxContent > 0 && len([]rune(content)) > s.maxContent {
		return wire.NewMessage{}, errors.ErrContentTooLong
	}

	// 2. Sanitize; the masked form is what gets stored and delivered
	if s.sanitizer != nil {
		content = s.sanitizer.Mask(content)
	}

	// 3. Persist synchronously; fan-out waits for this to succeed
	stored, err := s.store.AppendMessage(ctx, domain.ChatMessage{
		RoomID:   roomID,
		SenderID: sender.ID,
		Content:  content,
	})
	if err != nil {
		// The client only sees a generic failure; the cause stays here.
		s.log.Error("Message persistence failed",
			"room_id", roomID,
			"sender_id", sender.ID,
			"error", err)
		return wire.NewMessage{}, errors.ErrPersistence
	}

	// 4. Enrich with the sender's display name for delivery
	return wire.NewMessageFrom(stored, sender.Name), nil
}
