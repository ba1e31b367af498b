package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// Protocol
	ErrInvalidFrame = fmt.Errorf("invalid message format")
	ErrMissingField = fmt.Errorf("missing required field")

	// Authentication
	ErrInvalidToken    = fmt.Errorf("invalid token")
	ErrUnknownIdentity = fmt.Errorf("unknown or inactive user")

	// Authorization
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNotRoomMember    = fmt.Errorf("not a member of this room")

	// Validation
	ErrEmptyRoom      = fmt.Errorf("room id is required")
	ErrEmptyContent   = fmt.Errorf("message content is required")
	ErrContentTooLong = fmt.Errorf("message content too long")

	// Persistence / fallback
	ErrPersistence = fmt.Errorf("failed to save message")
	ErrInternal    = fmt.Errorf("internal error")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// ClientMessage converts an internal error into the text carried by an
// `error` envelope. Persistence causes are deliberately collapsed into a
// generic message; the real cause only goes to the logs.
func ClientMessage(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidFrame):
		return "Invalid message format"
	case stderrors.Is(err, ErrMissingField):
		return "Missing required field"
	case stderrors.Is(err, ErrInvalidToken):
		return "Invalid token"
	case stderrors.Is(err, ErrUnknownIdentity):
		return "Invalid user"
	case stderrors.Is(err, ErrNotAuthenticated):
		return "Not authenticated"
	case stderrors.Is(err, ErrNotRoomMember):
		return "Not a member of this room"
	case stderrors.Is(err, ErrEmptyRoom):
		return "Room id is required"
	case stderrors.Is(err, ErrEmptyContent):
		return "Message content is required"
	case stderrors.Is(err, ErrContentTooLong):
		return "Message content too long"
	case stderrors.Is(err, ErrPersistence):
		return "Failed to save message"
	default:
		return "Internal error"
	}
}
