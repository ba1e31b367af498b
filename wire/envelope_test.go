package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"nexus-gateway/errors"
)

func TestDecode_KnownKinds(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "auth",
			raw:  `{"type":"auth","token":"abc"}`,
			want: &Auth{Token: "abc"},
		},
		{
			name: "join_room",
			raw:  `{"type":"join_room","room_id":"r1"}`,
			want: &JoinRoom{RoomID: "r1"},
		},
		{
			name: "message",
			raw:  `{"type":"message","room_id":"r1","content":"hi"}`,
			want: &Message{RoomID: "r1", Content: "hi"},
		},
		{
			name: "typing with is_typing false",
			raw:  `{"type":"typing","room_id":"r1","is_typing":false}`,
			want: &Typing{RoomID: "r1", IsTyping: false},
		},
		{
			name: "task_update",
			raw:  `{"type":"task_update","project_id":"p1","task":{"id":"t1","status":"done"}}`,
			want: &TaskUpdate{ProjectID: "p1", Task: json.RawMessage(`{"id":"t1","status":"done"}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Decode([]byte(tt.raw))
			req.NoError(err)
			req.Equal(tt.want, frame)
		})
	}
}

func TestDecode_RejectsOutsideTheClosedSet(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `this is not json`},
		{"empty input", ``},
		{"unknown kind", `{"type":"shutdown"}`},
		{"missing kind", `{"room_id":"r1"}`},
		{"server-only kind", `{"type":"new_message"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			req.ErrorIs(err, errors.ErrInvalidFrame)
		})
	}
}

func TestDecode_RejectsMissingRequiredFields(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"auth without token", `{"type":"auth"}`},
		{"join without room", `{"type":"join_room"}`},
		{"message without content", `{"type":"message","room_id":"r1"}`},
		{"message with empty content", `{"type":"message","room_id":"r1","content":""}`},
		{"typing without room", `{"type":"typing","is_typing":true}`},
		{"task_update without task", `{"type":"task_update","project_id":"p1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			req.ErrorIs(err, errors.ErrMissingField)
		})
	}
}

func TestOutboundEnvelopes_CarryTheirKind(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		envelope any
		kind     Kind
	}{
		{NewAuthSuccess("u1", "Alice"), KindAuthSuccess},
		{NewError("Not authenticated"), KindError},
		{NewJoinedRoom("r1"), KindJoinedRoom},
		{NewUserJoined("u1", "Alice", "r1"), KindUserJoined},
		{NewUserLeft("u1", "Alice"), KindUserLeft},
		{NewTypingNotice("u1", "Alice", true, "r1"), KindTyping},
		{NewTaskUpdated(json.RawMessage(`{}`), "u1"), KindTaskUpdated},
	}

	for _, tt := range tests {
		raw, err := json.Marshal(tt.envelope)
		req.NoError(err)

		var head struct {
			Type Kind `json:"type"`
		}
		req.NoError(json.Unmarshal(raw, &head))
		req.Equal(tt.kind, head.Type)
	}
}
