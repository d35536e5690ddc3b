// Package ws bridges fiber websocket connections to the hub. The handshake
// authenticates the connection from its token; clients never declare their own
// identity over the socket.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/database"
	"github.com/fathima-sithara/social-app/internal/hub"
	"github.com/fathima-sithara/social-app/internal/metrics"
	"github.com/fathima-sithara/social-app/internal/services"
)

const (
	maxFrameBytes = 1024 * 64
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	writeWait     = 10 * time.Second
)

// inbound frame types accepted from clients.
const (
	typeJoinConversation = "joinConversation"
	typeRegister         = "register"
	typeSendMessage      = "sendMessage"
	typeMarkRead         = "markRead"
)

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type conversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

type Handler struct {
	hub      *hub.Hub
	jwt      *auth.JWTManager
	chat     *services.ChatService
	presence *database.PresenceStore
	msgRate  float64
	log      *zap.SugaredLogger
}

func NewHandler(h *hub.Hub, jwt *auth.JWTManager, chat *services.ChatService, presence *database.PresenceStore, msgPerSecond float64, log *zap.SugaredLogger) *Handler {
	return &Handler{hub: h, jwt: jwt, chat: chat, presence: presence, msgRate: msgPerSecond, log: log}
}

// Upgrade rejects plain HTTP requests on the socket route.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle runs one connection. The token comes from the ?token query parameter
// or the Authorization header; a connection that cannot authenticate is closed
// before it touches the hub.
func (h *Handler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		token := conn.Query("token")
		if token == "" {
			if t, err := auth.ParseBearerToken(conn.Headers("Authorization")); err == nil {
				token = t
			}
		}
		claims, err := h.jwt.ParseAccess(token)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}

		client := hub.NewClient()
		h.hub.Register(client, claims.UserID)
		metrics.WSConnections.Inc()

		ctx := context.Background()
		h.presence.SetOnline(ctx, claims.UserID)

		go h.writePump(conn, client, claims.UserID)
		h.readPump(conn, client, claims.UserID)

		h.hub.Disconnect(client)
		metrics.WSConnections.Dec()
		if h.hub.ConnectionCount(claims.UserID) == 0 {
			h.presence.SetOffline(ctx, claims.UserID)
		}
	})
}

func (h *Handler) readPump(conn *websocket.Conn, client *hub.Client, userID string) {
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(h.msgRate), int(h.msgRate)+1)
	ctx := context.Background()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.sendError(client, "invalid frame")
			continue
		}
		if !limiter.Allow() {
			h.sendError(client, "slow down")
			continue
		}
		h.dispatch(ctx, client, userID, frame)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *hub.Client, userID string, frame inboundFrame) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		h.sendError(client, "bad identity")
		return
	}

	switch frame.Type {
	case typeRegister:
		// Identity is already bound at handshake; the frame is accepted for
		// older clients and acknowledged.
		h.sendAck(client, typeRegister)

	case typeJoinConversation:
		var p conversationPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.ConversationID == "" {
			h.sendError(client, "conversation_id required")
			return
		}
		convID, err := primitive.ObjectIDFromHex(p.ConversationID)
		if err != nil {
			h.sendError(client, "bad conversation id")
			return
		}
		ok, err := h.chat.IsParticipant(ctx, uid, convID)
		if err != nil {
			h.log.Warnw("ws: participant check", "conversation", p.ConversationID, "err", err)
			h.sendError(client, "join failed")
			return
		}
		if !ok {
			h.sendError(client, "not a participant")
			return
		}
		h.hub.JoinRoom(client, p.ConversationID)
		h.sendAck(client, typeJoinConversation)

	case typeSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.ConversationID == "" {
			h.sendError(client, "conversation_id required")
			return
		}
		convID, err := primitive.ObjectIDFromHex(p.ConversationID)
		if err != nil {
			h.sendError(client, "bad conversation id")
			return
		}
		if _, err := h.chat.SendMessage(ctx, uid, convID, p.Text, nil); err != nil {
			h.sendError(client, "send failed")
			return
		}

	case typeMarkRead:
		var p conversationPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.ConversationID == "" {
			h.sendError(client, "conversation_id required")
			return
		}
		convID, err := primitive.ObjectIDFromHex(p.ConversationID)
		if err != nil {
			h.sendError(client, "bad conversation id")
			return
		}
		if err := h.chat.MarkRead(ctx, uid, convID); err != nil {
			h.sendError(client, "mark read failed")
			return
		}

	default:
		h.sendError(client, "unknown frame type")
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *hub.Client, userID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	ctx := context.Background()
	for {
		select {
		case msg, ok := <-client.Outbound():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
			h.presence.SetOnline(ctx, userID)
		}
	}
}

func (h *Handler) sendError(client *hub.Client, msg string) {
	b, err := json.Marshal(hub.Event{Type: "error", Payload: fiber.Map{"message": msg}})
	if err != nil {
		return
	}
	client.Send(b)
}

func (h *Handler) sendAck(client *hub.Client, of string) {
	b, err := json.Marshal(hub.Event{Type: "ack", Payload: fiber.Map{"of": of}})
	if err != nil {
		return
	}
	client.Send(b)
}
