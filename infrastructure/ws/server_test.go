package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"nexus-gateway/auth"
	"nexus-gateway/domain"
	"nexus-gateway/gateway"
	"nexus-gateway/repositories"
	"nexus-gateway/services"
)

var testSecret = []byte("ws-test-secret")

type testHarness struct {
	url      string
	messages repositories.MessageRepository
}

// newHarness wires the full gateway stack onto a throwaway BadgerDB and
// serves it from an httptest server.
func newHarness(t *testing.T) *testHarness {
	t.Helper()
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	users := repositories.NewUserRepository(db)
	ctx := context.Background()
	req.NoError(users.CreateUser(ctx, domain.User{ID: "u1", Name: "Alice", Role: "admin", Active: true}))
	req.NoError(users.CreateUser(ctx, domain.User{ID: "u2", Name: "Bob", Role: "member", Active: true}))
	req.NoError(users.AddRoomMember(ctx, "general", "u1"))
	req.NoError(users.AddRoomMember(ctx, "general", "u2"))

	messages := repositories.NewMessageRepository(db, log)
	registry := gateway.NewRegistry()
	presence := gateway.NewPresence()
	broadcast := gateway.NewBroadcaster(log, registry, presence)
	ingest := services.NewMessageService(log, messages, nil, 2000)
	gw := gateway.NewGateway(log, testSecret, users, ingest, registry, presence, broadcast, false)

	server := httptest.NewServer(NewServer(log, gw, 64, 4096).Handler())
	t.Cleanup(server.Close)

	return &testHarness{
		url:      "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		messages: messages,
	}
}

func (h *testHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func authenticate(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	sendFrame(t, conn, `{"type":"auth","token":"`+token+`"}`)

	frame := readFrame(t, conn)
	require.Equal(t, "auth_success", frame["type"])
}

func TestServer_EndToEndChat(t *testing.T) {
	req := require.New(t)
	harness := newHarness(t)

	// Given Alice authenticated and in the room
	alice := harness.dial(t)
	authenticate(t, alice, "u1")
	sendFrame(t, alice, `{"type":"join_room","room_id":"general"}`)
	joined := readFrame(t, alice)
	req.Equal("joined_room", joined["type"])
	req.Equal("general", joined["room_id"])

	// And Bob joining after her
	bob := harness.dial(t)
	authenticate(t, bob, "u2")
	sendFrame(t, bob, `{"type":"join_room","room_id":"general"}`)
	req.Equal("joined_room", readFrame(t, bob)["type"])

	// Then Alice sees him arrive
	arrival := readFrame(t, alice)
	req.Equal("user_joined", arrival["type"])
	req.Equal("u2", arrival["user_id"])
	req.Equal("Bob", arrival["name"])

	// When Alice posts a message
	sendFrame(t, alice, `{"type":"message","room_id":"general","content":"hello bob"}`)

	// Then she gets the echo and Bob gets the delivery, same payload
	echo := readFrame(t, alice)
	req.Equal("new_message", echo["type"])
	delivery := readFrame(t, bob)
	req.Equal("new_message", delivery["type"])
	req.Equal(echo["message"], delivery["message"])

	payload, ok := delivery["message"].(map[string]any)
	req.True(ok)
	req.Equal("hello bob", payload["content"])
	req.Equal("u1", payload["sender_id"])
	req.Equal("Alice", payload["sender_name"])

	// And the message was persisted before fan-out
	count, err := harness.messages.CountByRoom("general")
	req.NoError(err)
	req.Equal(1, count)
}

func TestServer_TypingRelay(t *testing.T) {
	req := require.New(t)
	harness := newHarness(t)

	alice := harness.dial(t)
	authenticate(t, alice, "u1")
	sendFrame(t, alice, `{"type":"join_room","room_id":"general"}`)
	readFrame(t, alice)

	bob := harness.dial(t)
	authenticate(t, bob, "u2")
	sendFrame(t, bob, `{"type":"join_room","room_id":"general"}`)
	readFrame(t, bob)
	readFrame(t, alice) // Bob's user_joined

	sendFrame(t, bob, `{"type":"typing","room_id":"general","is_typing":true}`)

	notice := readFrame(t, alice)
	req.Equal("typing", notice["type"])
	req.Equal("u2", notice["user_id"])
	req.Equal(true, notice["is_typing"])
}

func TestServer_DisconnectBroadcastsUserLeft(t *testing.T) {
	req := require.New(t)
	harness := newHarness(t)

	alice := harness.dial(t)
	authenticate(t, alice, "u1")
	sendFrame(t, alice, `{"type":"join_room","room_id":"general"}`)
	readFrame(t, alice)

	bob := harness.dial(t)
	authenticate(t, bob, "u2")
	sendFrame(t, bob, `{"type":"join_room","room_id":"general"}`)
	readFrame(t, bob)
	readFrame(t, alice) // Bob's user_joined

	// When Bob's socket drops without a goodbye
	req.NoError(bob.Close())

	departure := readFrame(t, alice)
	req.Equal("user_left", departure["type"])
	req.Equal("u2", departure["user_id"])
}

func TestServer_RejectsUnauthenticatedTraffic(t *testing.T) {
	req := require.New(t)
	harness := newHarness(t)

	conn := harness.dial(t)
	sendFrame(t, conn, `{"type":"message","room_id":"general","content":"sneaky"}`)

	frame := readFrame(t, conn)
	req.Equal("error", frame["type"])
	req.Equal("Not authenticated", frame["message"])
}

func TestServer_HealthEndpoint(t *testing.T) {
	req := require.New(t)
	harness := newHarness(t)

	healthURL := "http" + strings.TrimPrefix(harness.url, "ws")
	healthURL = strings.TrimSuffix(healthURL, "/ws") + "/health"

	resp, err := http.Get(healthURL)
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	var body map[string]string
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal("ok", body["status"])
	req.NotEmpty(body["timestamp"])
}
