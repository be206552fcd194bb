package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"partner-hub/auth"
	"partner-hub/domain"
	"partner-hub/services"
	"partner-hub/sink"
)

// Handler upgrades authenticated clients to a persistent socket and
// bridges it to the hub: a read loop for client intents (join, leave,
// typing) and a write pump draining the connection's sink.
//
// Identity is established before the registry ever sees the
// connection; an invalid token is rejected at this edge with a 401.
type Handler struct {
	log             *slog.Logger
	hub             services.IHubService
	tokens          *auth.TokenManager
	upgrader        websocket.Upgrader
	bufferSize      int
	deliveryTimeout time.Duration
	writeTimeout    time.Duration
	pongTimeout     time.Duration
}

func NewHandler(log *slog.Logger, hub services.IHubService, tokens *auth.TokenManager,
	bufferSize int, deliveryTimeout, writeTimeout, pongTimeout time.Duration) *Handler {
	return &Handler{
		log:    log,
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			// Browser origins are enforced by the CORS layer in front
			// of the router; the upgrader accepts what reaches it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize:      bufferSize,
		deliveryTimeout: deliveryTimeout,
		writeTimeout:    writeTimeout,
		pongTimeout:     pongTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Browser WebSocket clients cannot set headers, so the token
	// arrives as a query parameter; server-side clients may use the
	// Authorization header instead.
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connectionID := uuid.NewString()
	snk := sink.NewSocketSink(h.bufferSize, h.deliveryTimeout)

	// The connection owns its own context: closing this socket cancels
	// only its pending sends, never anyone else's.
	ctx, cancel := context.WithCancel(context.Background())

	h.hub.Connect(claims.UserID, connectionID, snk)
	h.log.Info("client connected", "user_id", claims.UserID, "connection_id", connectionID)

	defer func() {
		h.hub.Disconnect(claims.UserID, connectionID)
		_ = conn.Close()
		h.log.Info("client disconnected", "user_id", claims.UserID, "connection_id", connectionID)
	}()
	defer cancel()

	go h.writePump(ctx, cancel, conn, snk)
	h.readLoop(ctx, conn, claims.UserID, connectionID)
}

// readLoop blocks until the client goes away. Every inbound frame is
// an intent against the hub; malformed frames are logged and skipped,
// never fatal.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, userID, connectionID string) {
	_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("unexpected socket close", "user_id", userID, "error", err)
			}
			return
		}

		switch frame.Type {
		case frameJoin:
			if frame.RoomID == "" {
				h.log.Debug("join frame without room id", "user_id", userID)
				continue
			}
			h.hub.JoinRoom(connectionID, domain.RoomID(frame.RoomID))
		case frameLeave:
			if frame.RoomID == "" {
				continue
			}
			h.hub.LeaveRoom(connectionID, domain.RoomID(frame.RoomID))
		case frameTyping:
			h.hub.Typing(ctx, userID, frame.ReceiverID)
		case frameStopTyping:
			h.hub.StopTyping(ctx, userID, frame.ReceiverID)
		default:
			h.log.Debug("unknown frame type", "type", frame.Type, "user_id", userID)
		}
	}
}

// writePump drains the sink onto the wire with bounded write
// deadlines and keeps the connection alive with pings. A failed write
// cancels only this connection.
func (h *Handler) writePump(ctx context.Context, cancel context.CancelFunc,
	conn *websocket.Conn, snk *sink.SocketSink) {
	pingInterval := h.pongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.writeTimeout))
			return
		case evt := <-snk.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteJSON(envelope{Type: evt.Kind(), Payload: evt}); err != nil {
				h.log.Warn("socket write failed", "kind", evt.Kind(), "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(h.writeTimeout)); err != nil {
				return
			}
		}
	}
}
