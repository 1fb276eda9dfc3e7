package model

import (
	"encoding/json"
	"time"
)

// Wire event names, shared by the client core and the dev server.
const (
	EventRoomJoin     = "room:join"
	EventRoomLeave    = "room:leave"
	EventChatJoin     = "chat:conversation:join"
	EventChatLeave    = "chat:conversation:leave"
	EventChatSend     = "chat:message:send"
	EventChatReceive  = "chat:message:receive"
	EventChatTyping   = "chat:typing"
	EventNotifySub    = "notification:subscribe"
	EventNotifySend   = "notification:send"
	EventNotifyAck    = "notification:ack"
	EventSystemReady  = "system:ready"
	EventError        = "error"
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// Local transport events synthesized by the reconnection loop.
const (
	EventReconnectAttempt = "reconnect_attempt"
	EventReconnect        = "reconnect"
	EventReconnectError   = "reconnect_error"
)

// Envelope frames every message on the wire: an event name plus a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope. Marshal failures produce an
// envelope with no payload; the server treats that like a malformed frame.
func NewEnvelope(event string, data interface{}) Envelope {
	env := Envelope{Event: event}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			env.Data = raw
		}
	}
	return env
}

// RoomPayload carries conversation join/leave requests.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendPayload is the outbound chat:message:send body.
type SendPayload struct {
	ConversationID string                 `json:"conversationId"`
	Message        string                 `json:"message"`
	Attachments    []string               `json:"attachments,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ReceivePayload is the inbound chat:message:receive body. Field aliases
// (messageId/_id, sentAt/createdAt) cover the server variants in the wild.
type ReceivePayload struct {
	ConversationID string                 `json:"conversationId"`
	Message        string                 `json:"message"`
	MessageID      string                 `json:"messageId,omitempty"`
	AltID          string                 `json:"_id,omitempty"`
	SenderID       string                 `json:"senderId,omitempty"`
	SenderName     string                 `json:"senderName,omitempty"`
	SenderAvatar   string                 `json:"senderAvatar,omitempty"`
	Attachments    []string               `json:"attachments,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	SentAt         *time.Time             `json:"sentAt,omitempty"`
	CreatedAt      *time.Time             `json:"createdAt,omitempty"`
}

// TypingPayload carries typing indicators in both directions. IsTyping is a
// pointer so an absent field can default to true on the inbound path.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId,omitempty"`
	IsTyping       *bool  `json:"isTyping,omitempty"`
}

// TypingEvent is the normalized inbound typing indicator.
type TypingEvent struct {
	ConversationID string
	UserID         string
	IsTyping       bool
}

// ErrorPayload is the inbound application-level error body.
type ErrorPayload struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// NormalizeReceived converts an inbound receive payload into a Message.
// Returns false when a required field is missing; such payloads are dropped.
func NormalizeReceived(p ReceivePayload) (Message, bool) {
	if p.ConversationID == "" || p.Message == "" {
		return Message{}, false
	}

	id := p.MessageID
	if id == "" {
		id = p.AltID
	}
	if id == "" {
		id = ClientMessageID()
	}

	createdAt := time.Now()
	if p.SentAt != nil {
		createdAt = *p.SentAt
	} else if p.CreatedAt != nil {
		createdAt = *p.CreatedAt
	}

	msg := Message{
		ID:             id,
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		SenderName:     p.SenderName,
		Body:           p.Message,
		Type:           TypeText,
		CreatedAt:      createdAt,
		Metadata:       p.Metadata,
		Status:         StatusSent,
		IsDelivered:    true,
	}
	if msg.Metadata == nil {
		msg.Metadata = map[string]interface{}{}
	}
	if p.SenderAvatar != "" {
		msg.Metadata["senderAvatar"] = p.SenderAvatar
	}
	return msg, true
}

// NormalizeTyping validates an inbound typing payload. IsTyping defaults to
// true when the field is absent.
func NormalizeTyping(p TypingPayload) (TypingEvent, bool) {
	if p.ConversationID == "" || p.UserID == "" {
		return TypingEvent{}, false
	}
	ev := TypingEvent{
		ConversationID: p.ConversationID,
		UserID:         p.UserID,
		IsTyping:       true,
	}
	if p.IsTyping != nil {
		ev.IsTyping = *p.IsTyping
	}
	return ev, true
}
