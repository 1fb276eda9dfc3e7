package model

import (
	"time"

	"github.com/google/uuid"
)

// Message delivery status. Transitions only move forward:
// pending -> sent or pending -> failed.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Message content types.
const (
	TypeText    = "text"
	TypeProduct = "product"
	TypeCall    = "call"
	TypeImage   = "image"
	TypeFile    = "file"
)

// Metadata roles for AI threads.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Thread-level sync status.
const (
	ThreadIdle      = "idle"
	ThreadHydrating = "hydrating"
	ThreadSending   = "sending"
	ThreadError     = "error"
)

// Message is one entry in a conversation thread.
type Message struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversationId"`
	SenderID       string                 `json:"senderId"`
	SenderName     string                 `json:"senderName,omitempty"`
	Body           string                 `json:"body"`
	Type           string                 `json:"type"`
	CreatedAt      time.Time              `json:"createdAt"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Status         string                 `json:"status"`
	IsDelivered    bool                   `json:"isDelivered"`
	IsRead         bool                   `json:"isRead"`
}

// ThreadMeta tracks the sync state of one user's thread.
type ThreadMeta struct {
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// NewClientMessage builds a locally-authored message with a client-generated
// temp id. The server assigns the permanent id on confirmation.
func NewClientMessage(conversationID, senderID, senderName, body string) Message {
	return Message{
		ID:             ClientMessageID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     senderName,
		Body:           body,
		Type:           TypeText,
		CreatedAt:      time.Now(),
		Metadata:       map[string]interface{}{},
		Status:         StatusPending,
	}
}

// ClientMessageID returns a fresh client-side temp id.
func ClientMessageID() string {
	return "client-" + uuid.New().String()
}
