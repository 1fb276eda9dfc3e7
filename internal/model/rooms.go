package model

import "fmt"

// Channel selects which chat namespace a conversation lives on.
type Channel string

const (
	ChannelAdmin Channel = "admin"
	ChannelShop  Channel = "shop"
	ChannelAI    Channel = "ai"
)

// ChatConversationRoom returns the fan-out key for one conversation on a channel,
// e.g. "chat:shop:c1".
func ChatConversationRoom(channel Channel, conversationID string) string {
	return fmt.Sprintf("chat:%s:%s", channel, conversationID)
}

// NotificationRoom returns the per-user notification fan-out key,
// e.g. "notification:user:u1".
func NotificationRoom(userID string) string {
	return fmt.Sprintf("notification:user:%s", userID)
}

// UserRoom returns the generic per-user fan-out key.
func UserRoom(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}
