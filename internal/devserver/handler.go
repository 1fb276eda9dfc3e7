package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"storefront-realtime/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Loopback development server, CORS handled by middleware.
		return true
	},
}

// Handler upgrades namespace endpoints and routes envelope events.
type Handler struct {
	hub    *Hub
	tokens *TokenService
}

func NewHandler(hub *Hub, tokens *TokenService) *Handler {
	return &Handler{hub: hub, tokens: tokens}
}

// HandleNamespace returns the upgrade handler for one namespace path. A
// bearer token travels as the token query parameter; connections without one
// proceed as guests, mirroring the production backend's contract.
func (h *Handler) HandleNamespace(namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if token := c.Query("token"); token != "" {
			var err error
			userID, err = h.tokens.Validate(token)
			if err != nil {
				logrus.WithError(err).Warn("token validation failed")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token validation failed"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Error("websocket upgrade failed")
			return
		}

		clientID := uuid.New().String()
		if userID == "" {
			userID = "guest-" + clientID[:8]
		}
		client := &Client{
			ID:        clientID,
			UserID:    userID,
			Namespace: namespace,
			LastPing:  time.Now(),
			conn:      conn,
		}

		h.hub.AddClient(client)
		defer h.hub.RemoveClient(clientID)

		conn.SetReadLimit(512 * 1024)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			client.LastPing = time.Now()
			return nil
		})

		client.Send(model.NewEnvelope(model.EventSystemReady, nil))

		done := make(chan struct{})
		go h.pingLoop(client, done)
		defer close(done)

		h.readLoop(client)
	}
}

func (h *Handler) pingLoop(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			client.writeMu.Lock()
			err := client.conn.WriteMessage(websocket.PingMessage, nil)
			client.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(client *Client) {
	for {
		var env model.Envelope
		if err := client.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("client_id", client.ID).WithError(err).Warn("connection closed unexpectedly")
			}
			return
		}
		client.LastPing = time.Now()
		h.route(client, env)
	}
}

func (h *Handler) route(client *Client, env model.Envelope) {
	logrus.WithFields(logrus.Fields{
		"client_id": client.ID,
		"event":     env.Event,
		"namespace": client.Namespace,
	}).Debug("inbound event")

	switch env.Event {
	case model.EventChatJoin, model.EventRoomJoin:
		if room, ok := h.roomFromPayload(client, env.Data); ok {
			h.hub.JoinRoom(client.ID, room)
		}
	case model.EventChatLeave, model.EventRoomLeave:
		if room, ok := h.roomFromPayload(client, env.Data); ok {
			h.hub.LeaveRoom(client.ID, room)
		}
	case model.EventChatSend:
		h.handleSend(client, env.Data)
	case model.EventChatTyping:
		h.handleTyping(client, env.Data)
	case model.EventNotifySub:
		h.hub.JoinRoom(client.ID, model.NotificationRoom(client.UserID))
	case model.EventNotifyAck:
		// Ack is observational on the dev server.
	default:
		h.sendError(client, 400, "unsupported event: "+env.Event)
	}
}

func (h *Handler) roomFromPayload(client *Client, data json.RawMessage) (string, bool) {
	var payload model.RoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(client, 400, "missing conversation id")
		return "", false
	}
	return h.roomKey(client, payload.ConversationID), true
}

// roomKey scopes a conversation to its channel on chat namespaces; other
// namespaces treat the id as a literal room key.
func (h *Handler) roomKey(client *Client, conversationID string) string {
	if ch, ok := channelFromNamespace(client.Namespace); ok {
		return model.ChatConversationRoom(ch, conversationID)
	}
	return conversationID
}

func (h *Handler) handleSend(client *Client, data json.RawMessage) {
	var payload model.SendPayload
	if err := json.Unmarshal(data, &payload); err != nil ||
		payload.ConversationID == "" || payload.Message == "" {
		h.sendError(client, 400, "missing conversation id or message")
		return
	}

	now := time.Now()
	receive := model.ReceivePayload{
		ConversationID: payload.ConversationID,
		Message:        payload.Message,
		MessageID:      uuid.New().String(),
		SenderID:       client.UserID,
		Metadata:       payload.Metadata,
		SentAt:         &now,
	}
	room := h.roomKey(client, payload.ConversationID)
	h.hub.Broadcast(room, model.NewEnvelope(model.EventChatReceive, receive), client.ID)

	// The AI namespace answers the sender directly.
	if client.Namespace == "/chat/ai" {
		replyAt := time.Now()
		reply := model.ReceivePayload{
			ConversationID: payload.ConversationID,
			Message:        AIReply(payload.Message),
			MessageID:      uuid.New().String(),
			SenderID:       "assistant",
			Metadata:       map[string]interface{}{"role": model.RoleAssistant},
			SentAt:         &replyAt,
		}
		client.Send(model.NewEnvelope(model.EventChatReceive, reply))
	}
}

func (h *Handler) handleTyping(client *Client, data json.RawMessage) {
	var payload model.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID == "" {
		return
	}
	payload.UserID = client.UserID
	room := h.roomKey(client, payload.ConversationID)
	h.hub.Broadcast(room, model.NewEnvelope(model.EventChatTyping, payload), client.ID)
}

func (h *Handler) sendError(client *Client, code int, message string) {
	logrus.WithFields(logrus.Fields{
		"client_id": client.ID,
		"code":      code,
		"message":   message,
	}).Warn("sending error to client")

	client.Send(model.NewEnvelope(model.EventError, model.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// AIReply is the canned assistant used before the real AI backend is wired.
func AIReply(message string) string {
	return "You said: " + strings.TrimSpace(message)
}

func channelFromNamespace(namespace string) (model.Channel, bool) {
	switch namespace {
	case "/chat/admin":
		return model.ChannelAdmin, true
	case "/chat/shop":
		return model.ChannelShop, true
	case "/chat/ai":
		return model.ChannelAI, true
	}
	return "", false
}
