package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatConversationRoom(t *testing.T) {
	assert.Equal(t, "chat:shop:c1", ChatConversationRoom(ChannelShop, "c1"))
	assert.Equal(t, "chat:admin:conv-42", ChatConversationRoom(ChannelAdmin, "conv-42"))
	assert.Equal(t, "chat:ai:abc", ChatConversationRoom(ChannelAI, "abc"))
}

func TestNotificationRoom(t *testing.T) {
	assert.Equal(t, "notification:user:u1", NotificationRoom("u1"))
}

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1"))
}
