package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"nexus-gateway/domain"
	"nexus-gateway/errors"
	"nexus-gateway/mocks"
	"nexus-gateway/moderation"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const maxContent = 2000

var alice = domain.User{ID: "u1", Name: "Alice", Active: true}

func TestMessageService_Submit(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	service := NewMessageService(testLog, store, nil, maxContent)

	// Given the store accepting the message and stamping it
	stamped := domain.ChatMessage{
		ID:        uuid.New(),
		RoomID:    "general",
		SenderID:  "u1",
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	store.EXPECT().
		AppendMessage(gomock.Any(), domain.ChatMessage{RoomID: "general", SenderID: "u1", Content: "hello"}).
		Return(stamped, nil)

	// When submitting
	payload, err := service.Submit(context.Background(), "general", alice, "hello")

	// Then the payload carries the stored record enriched with the sender name
	req.NoError(err)
	req.Equal(stamped.ID.String(), payload.Message.ID)
	req.Equal("general", payload.Message.RoomID)
	req.Equal("u1", payload.Message.SenderID)
	req.Equal("hello", payload.Message.Content)
	req.Equal("Alice", payload.Message.SenderName)
	req.Equal(stamped.CreatedAt, payload.Message.CreatedAt)
}

func TestMessageService_SubmitValidatesBeforeStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	service := NewMessageService(testLog, store, nil, maxContent)

	tests := []struct {
		name     string
		roomID   string
		content  string
		expected error
	}{
		{"empty room", "", "hello", errors.ErrEmptyRoom},
		{"empty content", "general", "", errors.ErrEmptyContent},
		{"content too long", "general", strings.Repeat("x", maxContent+1), errors.ErrContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			// No AppendMessage expectation: validation failures must never
			// reach the store.
			_, err := service.Submit(context.Background(), tt.roomID, alice, tt.content)
			req.ErrorIs(err, tt.expected)
		})
	}
}

func TestMessageService_SubmitCountsRunesNotBytes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	service := NewMessageService(testLog, store, nil, 10)

	// 10 runes, 40 bytes: within the limit
	content := strings.Repeat("語", 10)
	store.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).
		Return(domain.ChatMessage{ID: uuid.New(), RoomID: "general", SenderID: "u1", Content: content}, nil)

	_, err := service.Submit(context.Background(), "general", alice, content)
	req.NoError(err)
}

func TestMessageService_SubmitMasksBeforeStorage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	sanitizer, err := moderation.NewSanitizer([]string{"badger"}, '*')
	req.NoError(err)
	service := NewMessageService(testLog, store, sanitizer, maxContent)

	// The store must receive the masked form: what is persisted is what
	// gets delivered.
	store.EXPECT().
		AppendMessage(gomock.Any(), domain.ChatMessage{RoomID: "general", SenderID: "u1", Content: "a ****** bit me"}).
		Return(domain.ChatMessage{ID: uuid.New(), RoomID: "general", SenderID: "u1", Content: "a ****** bit me"}, nil)

	payload, err := service.Submit(context.Background(), "general", alice, "a badger bit me")
	req.NoError(err)
	req.Equal("a ****** bit me", payload.Message.Content)
}

func TestMessageService_SubmitHidesStorageFailureCause(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	service := NewMessageService(testLog, store, nil, maxContent)

	store.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).
		Return(domain.ChatMessage{}, context.DeadlineExceeded)

	_, err := service.Submit(context.Background(), "general", alice, "hello")

	// The caller sees the generic persistence failure, not the cause.
	req.ErrorIs(err, errors.ErrPersistence)
	req.NotErrorIs(err, context.DeadlineExceeded)
}
