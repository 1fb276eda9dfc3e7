package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReceived(t *testing.T) {
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload ReceivePayload
		wantOK  bool
		check   func(t *testing.T, msg Message)
	}{
		{
			name:    "missing conversation id dropped",
			payload: ReceivePayload{Message: "hello"},
			wantOK:  false,
		},
		{
			name:    "missing message body dropped",
			payload: ReceivePayload{ConversationID: "c1"},
			wantOK:  false,
		},
		{
			name: "messageId preferred",
			payload: ReceivePayload{
				ConversationID: "c1", Message: "hi",
				MessageID: "m1", AltID: "alt",
			},
			wantOK: true,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, "m1", msg.ID)
			},
		},
		{
			name: "_id fallback",
			payload: ReceivePayload{
				ConversationID: "c1", Message: "hi", AltID: "alt",
			},
			wantOK: true,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, "alt", msg.ID)
			},
		},
		{
			name:    "generated id when none present",
			payload: ReceivePayload{ConversationID: "c1", Message: "hi"},
			wantOK:  true,
			check: func(t *testing.T, msg Message) {
				assert.True(t, strings.HasPrefix(msg.ID, "client-"))
			},
		},
		{
			name: "sentAt wins over createdAt",
			payload: ReceivePayload{
				ConversationID: "c1", Message: "hi",
				SentAt: &sentAt, CreatedAt: timePtr(sentAt.Add(time.Hour)),
			},
			wantOK: true,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, sentAt, msg.CreatedAt)
			},
		},
		{
			name: "avatar lands in metadata",
			payload: ReceivePayload{
				ConversationID: "c1", Message: "hi", SenderAvatar: "a.png",
			},
			wantOK: true,
			check: func(t *testing.T, msg Message) {
				assert.Equal(t, "a.png", msg.Metadata["senderAvatar"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := NormalizeReceived(tt.payload)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, StatusSent, msg.Status)
			assert.True(t, msg.IsDelivered)
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

func TestNormalizeTyping(t *testing.T) {
	_, ok := NormalizeTyping(TypingPayload{UserID: "u1"})
	assert.False(t, ok, "missing conversation id must be dropped")

	_, ok = NormalizeTyping(TypingPayload{ConversationID: "c1"})
	assert.False(t, ok, "missing user id must be dropped")

	ev, ok := NormalizeTyping(TypingPayload{ConversationID: "c1", UserID: "u1"})
	require.True(t, ok)
	assert.True(t, ev.IsTyping, "isTyping defaults to true when absent")

	off := false
	ev, ok = NormalizeTyping(TypingPayload{ConversationID: "c1", UserID: "u1", IsTyping: &off})
	require.True(t, ok)
	assert.False(t, ev.IsTyping)
}

func TestNewClientMessage(t *testing.T) {
	msg := NewClientMessage("c1", "u1", "Ann", "hello")

	assert.True(t, strings.HasPrefix(msg.ID, "client-"))
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, TypeText, msg.Type)
	assert.False(t, msg.IsDelivered)
	assert.False(t, msg.IsRead)

	other := NewClientMessage("c1", "u1", "Ann", "hello")
	assert.NotEqual(t, msg.ID, other.ID, "client ids must be unique")
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope(EventChatSend, SendPayload{ConversationID: "c1", Message: "hi"})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, EventChatSend, decoded.Event)

	var payload SendPayload
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	assert.Equal(t, "c1", payload.ConversationID)
}

func timePtr(ts time.Time) *time.Time {
	return &ts
}
