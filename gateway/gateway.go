package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/samber/lo"

	"nexus-gateway/auth"
	"nexus-gateway/contract"
	"nexus-gateway/errors"
	"nexus-gateway/services"
	"nexus-gateway/wire"
)

// Gateway routes inbound frames through the authentication handshake and
// on to presence, ingestion, and fan-out. One Gateway serves the whole
// process; per-connection state lives on the Session.
type Gateway struct {
	log        *slog.Logger
	secret     []byte
	identities contract.IIdentityStore
	ingest     services.IMessageService
	registry   *Registry
	presence   *Presence
	broadcast  *Broadcaster

	// leaveAllRooms selects the disconnect behavior: false reproduces the
	// original last-joined-room-only leave, true clears every room the
	// connection joined.
	leaveAllRooms bool
}

func NewGateway(log *slog.Logger, secret []byte, identities contract.IIdentityStore,
	ingest services.IMessageService, registry *Registry, presence *Presence,
	broadcast *Broadcaster, leaveAllRooms bool) *Gateway {
	return &Gateway{
		log:           log,
		secret:        secret,
		identities:    identities,
		ingest:        ingest,
		registry:      registry,
		presence:      presence,
		broadcast:     broadcast,
		leaveAllRooms: leaveAllRooms,
	}
}

// HandleFrame processes one inbound frame. The transport calls it from
// the connection's read loop, which serializes frames per connection: a
// frame suspended on a store call holds back only its own connection's
// next frame, preserving per-sender ordering.
func (g *Gateway) HandleFrame(ctx context.Context, sess *Session, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("Frame handler panic", "connection_id", sess.ID(), "panic", r)
			g.sendError(sess, errors.ErrInternal)
		}
	}()

	frame, err := wire.Decode(raw)
	if err != nil {
		g.sendError(sess, err)
		return
	}

	// The handshake is the only frame allowed before authentication, and
	// it is always allowed: a second auth silently rebinds the connection.
	if authFrame, ok := frame.(*wire.Auth); ok {
		g.handleAuth(ctx, sess, authFrame)
		return
	}
	if !sess.Authenticated() {
		g.sendError(sess, errors.ErrNotAuthenticated)
		return
	}

	switch f := frame.(type) {
	case *wire.JoinRoom:
		g.handleJoin(ctx, sess, f)
	case *wire.Message:
		g.handleMessage(ctx, sess, f)
	case *wire.Typing:
		g.handleTyping(sess, f)
	case *wire.TaskUpdate:
		g.handleTaskUpdate(sess, f)
	}
}

func (g *Gateway) handleAuth(ctx context.Context, sess *Session, frame *wire.Auth) {
	claims, err := auth.ValidateToken(g.secret, frame.Token)
	if err != nil {
		g.sendError(sess, errors.ErrInvalidToken)
		return
	}
	user, err := g.identities.GetActiveUser(ctx, claims.UserID)
	if err != nil {
		g.sendError(sess, errors.ErrUnknownIdentity)
		return
	}

	// Re-authentication moves the connection to the new identity's
	// session set. Room presence acquired under the previous identity is
	// left untouched.
	if prev := sess.User(); prev != nil && prev.ID != user.ID {
		g.registry.Unregister(prev.ID, sess)
	}
	sess.user = &user
	g.registry.Register(user.ID, sess)
	g.send(sess, wire.NewAuthSuccess(user.ID, user.Name))
}

func (g *Gateway) handleJoin(ctx context.Context, sess *Session, frame *wire.JoinRoom) {
	user := sess.User()

	member, err := g.identities.IsRoomMember(ctx, frame.RoomID, user.ID)
	if err != nil {
		g.log.Error("Membership lookup failed", "room_id", frame.RoomID, "user_id", user.ID, "error", err)
	}
	if err != nil || !member {
		g.sendError(sess, errors.ErrNotRoomMember)
		return
	}

	g.presence.Join(frame.RoomID, user.ID)
	sess.lastRoom = frame.RoomID
	sess.rooms[frame.RoomID] = struct{}{}

	g.send(sess, wire.NewJoinedRoom(frame.RoomID))
	g.broadcast.Publish(frame.RoomID, wire.NewUserJoined(user.ID, user.Name, frame.RoomID), user.ID)
}

func (g *Gateway) handleMessage(ctx context.Context, sess *Session, frame *wire.Message) {
	user := sess.User()

	payload, err := g.ingest.Submit(ctx, frame.RoomID, *user, frame.Content)
	if err != nil {
		g.sendError(sess, err)
		return
	}

	// Echo to the originating connection only, then fan out to the room
	// excluding the sender identity. The sender's other connections get
	// neither; they catch up on the next history fetch.
	g.send(sess, payload)
	g.broadcast.Publish(frame.RoomID, payload, user.ID)
}

// handleTyping relays without persistence or membership re-verification;
// the sender is trusted to name a room it has legitimately joined.
func (g *Gateway) handleTyping(sess *Session, frame *wire.Typing) {
	user := sess.User()
	g.broadcast.Publish(frame.RoomID,
		wire.NewTypingNotice(user.ID, user.Name, frame.IsTyping, frame.RoomID), user.ID)
}

func (g *Gateway) handleTaskUpdate(sess *Session, frame *wire.TaskUpdate) {
	user := sess.User()
	g.broadcast.Publish(frame.ProjectID, wire.NewTaskUpdated(frame.Task, user.ID), user.ID)
}

// HandleDisconnect deregisters a connection everywhere. It is idempotent:
// overlapping transport teardown paths trigger at most one leave, and it
// never blocks on in-flight fan-out from other connections.
func (g *Gateway) HandleDisconnect(sess *Session) {
	if !sess.Close() {
		return
	}
	user := sess.User()
	if user == nil {
		return
	}

	g.registry.Unregister(user.ID, sess)

	for _, roomID := range g.roomsToLeave(sess) {
		g.presence.Leave(roomID, user.ID)
		g.broadcast.Publish(roomID, wire.NewUserLeft(user.ID, user.Name), user.ID)
	}
}

func (g *Gateway) roomsToLeave(sess *Session) []string {
	if !g.leaveAllRooms {
		if sess.lastRoom == "" {
			return nil
		}
		return []string{sess.lastRoom}
	}
	return lo.Keys(sess.rooms)
}

// send marshals an envelope and queues it for this connection only.
func (g *Gateway) send(sess *Session, envelope any) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		g.log.Error("Envelope marshal failed", "connection_id", sess.ID(), "error", err)
		return
	}
	if !sess.TrySend(payload) {
		g.log.Debug("Frame dropped, send buffer full", "connection_id", sess.ID())
	}
}

func (g *Gateway) sendError(sess *Session, err error) {
	g.send(sess, wire.NewError(errors.ClientMessage(err)))
}
