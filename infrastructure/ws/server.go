// Package ws exposes the gateway over a WebSocket endpoint. It owns the
// socket handshake and the per-connection read/write pumps; everything
// protocol-level lives in the gateway package.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"nexus-gateway/gateway"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Server bridges each accepted connection to a gateway session: the read
// loop feeds frames to the gateway in arrival order while the write pump
// drains the session's outbound queue.
type Server struct {
	log        *slog.Logger
	gw         *gateway.Gateway
	bufferSize int
	maxFrame   int64
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, gw *gateway.Gateway, bufferSize int, maxFrameBytes int64) *Server {
	return &Server{
		log:        log,
		gw:         gw,
		bufferSize: bufferSize,
		maxFrame:   maxFrameBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the mux serving the websocket endpoint and the health
// probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", s.serveHealth)
	return mux
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := gateway.NewSession(s.bufferSize)
	s.log.Debug("Connection accepted", "connection_id", sess.ID(), "remote", r.RemoteAddr)

	go s.writePump(conn, sess)
	s.readLoop(r, conn, sess)
}

// readLoop handles frames synchronously so that a connection's frames are
// processed strictly in arrival order; a frame suspended on a store call
// holds back only its own connection.
func (s *Server) readLoop(r *http.Request, conn *websocket.Conn, sess *gateway.Session) {
	defer func() {
		s.gw.HandleDisconnect(sess)
		_ = conn.Close()
	}()

	conn.SetReadLimit(s.maxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.Warn("Read failed", "connection_id", sess.ID(), "error", err)
			}
			return
		}
		s.gw.HandleFrame(r.Context(), sess, raw)
	}
}

// writePump owns all writes to the socket. It drains the session's
// outbound queue and keeps the connection alive with periodic pings; when
// the session closes, it sends a close frame and tears the socket down,
// which in turn unblocks the read loop.
func (s *Server) writePump(conn *websocket.Conn, sess *gateway.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sess.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
