// Package wire defines the JSON envelopes exchanged over a gateway
// connection. The envelope set is closed: anything outside it is rejected
// at the boundary before it can touch gateway state.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"nexus-gateway/domain"
	"nexus-gateway/errors"
)

// Kind discriminates envelopes; it is carried in the "type" JSON field.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindAuthSuccess Kind = "auth_success"
	KindError       Kind = "error"
	KindJoinRoom    Kind = "join_room"
	KindJoinedRoom  Kind = "joined_room"
	KindMessage     Kind = "message"
	KindNewMessage  Kind = "new_message"
	KindTyping      Kind = "typing"
	KindTaskUpdate  Kind = "task_update"
	KindTaskUpdated Kind = "task_updated"
	KindUserJoined  Kind = "user_joined"
	KindUserLeft    Kind = "user_left"
)

var validate = validator.New()

// Inbound is the closed set of frames a client may send.
type Inbound interface {
	inbound()
}

type Auth struct {
	Token string `json:"token" validate:"required"`
}

type JoinRoom struct {
	RoomID string `json:"room_id" validate:"required"`
}

type Message struct {
	RoomID  string `json:"room_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type Typing struct {
	RoomID   string `json:"room_id" validate:"required"`
	IsTyping bool   `json:"is_typing"`
}

type TaskUpdate struct {
	ProjectID string          `json:"project_id" validate:"required"`
	Task      json.RawMessage `json:"task" validate:"required"`
}

func (*Auth) inbound()       {}
func (*JoinRoom) inbound()   {}
func (*Message) inbound()    {}
func (*Typing) inbound()     {}
func (*TaskUpdate) inbound() {}

// Decode parses one client frame. Non-JSON input, an unknown kind, or a
// missing required field is rejected here; decoding never mutates any
// gateway state.
func Decode(raw []byte) (Inbound, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, errors.ErrInvalidFrame
	}

	var frame Inbound
	switch head.Type {
	case KindAuth:
		frame = &Auth{}
	case KindJoinRoom:
		frame = &JoinRoom{}
	case KindMessage:
		frame = &Message{}
	case KindTyping:
		frame = &Typing{}
	case KindTaskUpdate:
		frame = &TaskUpdate{}
	default:
		return nil, errors.ErrInvalidFrame
	}

	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, errors.ErrInvalidFrame
	}
	if err := validate.Struct(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMissingField, err)
	}
	return frame, nil
}

// UserRef carries the public fields of an identity.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AuthSuccess struct {
	Type Kind    `json:"type"`
	User UserRef `json:"user"`
}

type Error struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

type JoinedRoom struct {
	Type   Kind   `json:"type"`
	RoomID string `json:"room_id"`
}

type UserJoined struct {
	Type   Kind   `json:"type"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	RoomID string `json:"room_id"`
}

type UserLeft struct {
	Type   Kind   `json:"type"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// MessagePayload is the stored message record enriched with the sender's
// display name for fan-out.
type MessagePayload struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	SenderName string    `json:"sender_name"`
}

type NewMessage struct {
	Type    Kind           `json:"type"`
	Message MessagePayload `json:"message"`
}

type TypingNotice struct {
	Type     Kind   `json:"type"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsTyping bool   `json:"is_typing"`
	RoomID   string `json:"room_id"`
}

type TaskUpdated struct {
	Type      Kind            `json:"type"`
	Task      json.RawMessage `json:"task"`
	UpdatedBy string          `json:"updated_by"`
}

func NewAuthSuccess(userID, name string) AuthSuccess {
	return AuthSuccess{Type: KindAuthSuccess, User: UserRef{ID: userID, Name: name}}
}

func NewError(message string) Error {
	return Error{Type: KindError, Message: message}
}

func NewJoinedRoom(roomID string) JoinedRoom {
	return JoinedRoom{Type: KindJoinedRoom, RoomID: roomID}
}

func NewUserJoined(userID, name, roomID string) UserJoined {
	return UserJoined{Type: KindUserJoined, UserID: userID, Name: name, RoomID: roomID}
}

func NewUserLeft(userID, name string) UserLeft {
	return UserLeft{Type: KindUserLeft, UserID: userID, Name: name}
}

// NewMessageFrom enriches a stored message with the sender's display name.
func NewMessageFrom(message domain.ChatMessage, senderName string) NewMessage {
	return NewMessage{
		Type: KindNewMessage,
		Message: MessagePayload{
			ID:         message.ID.String(),
			RoomID:     message.RoomID,
			SenderID:   message.SenderID,
			Content:    message.Content,
			CreatedAt:  message.CreatedAt,
			SenderName: senderName,
		},
	}
}

func NewTypingNotice(userID, name string, isTyping bool, roomID string) TypingNotice {
	return TypingNotice{Type: KindTyping, UserID: userID, Name: name, IsTyping: isTyping, RoomID: roomID}
}

func NewTaskUpdated(task json.RawMessage, updatedBy string) TaskUpdated {
	return TaskUpdated{Type: KindTaskUpdated, Task: task, UpdatedBy: updatedBy}
}
