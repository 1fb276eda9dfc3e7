package socket

import (
	"storefront-realtime/internal/auth"
	"storefront-realtime/internal/config"
	"storefront-realtime/internal/model"
)

// Namespace paths served by the realtime backend.
const (
	NamespaceRoot          = "/"
	NamespaceNotifications = "/notifications"
	NamespaceAdminChat     = "/chat/admin"
	NamespaceShopChat      = "/chat/shop"
	NamespaceAIChat        = "/chat/ai"
)

// Registry holds the four independently-lifecycled namespace managers. They
// share the base URL, transport kind and debug flag but nothing else; one
// namespace failing or recovering never touches the others.
//
// Build one registry at application start and pass it by reference.
type Registry struct {
	Notifications *Manager
	AdminChat     *Manager
	ShopChat      *Manager
	AIChat        *Manager
}

// NewRegistry wires the four managers against one factory, each with the
// default token auth provider.
func NewRegistry(cfg config.Realtime, tokens auth.TokenSource) *Registry {
	factory := NewFactory(cfg.BaseURL, cfg.Debug)

	build := func(namespace, label string) *Manager {
		return NewManager(factory, Descriptor{
			Namespace:    namespace,
			Auth:         TokenAuth(tokens),
			DebugLabel:   label,
			Reconnection: cfg.Reconnection,
		})
	}

	return &Registry{
		Notifications: build(NamespaceNotifications, "notifications"),
		AdminChat:     build(NamespaceAdminChat, "admin-chat"),
		ShopChat:      build(NamespaceShopChat, "shop-chat"),
		AIChat:        build(NamespaceAIChat, "ai-chat"),
	}
}

// ForChannel resolves the manager backing a chat channel.
func (r *Registry) ForChannel(ch model.Channel) *Manager {
	switch ch {
	case model.ChannelAdmin:
		return r.AdminChat
	case model.ChannelAI:
		return r.AIChat
	default:
		return r.ShopChat
	}
}
