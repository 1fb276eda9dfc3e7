package chat_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-realtime/internal/auth"
	"storefront-realtime/internal/chat"
	"storefront-realtime/internal/config"
	"storefront-realtime/internal/devserver"
	"storefront-realtime/internal/model"
	"storefront-realtime/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	conversationID string
	msg            model.Message
}

func startBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		CORS: config.CORS{AllowedOrigins: []string{"*"}},
		JWT:  config.JWT{Secret: "test-secret", ExpirationHours: 1},
	}
	hub := devserver.NewHub()
	tokens := devserver.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	srv := httptest.NewServer(devserver.BuildRouter(cfg, hub, tokens))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Shutdown)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newRegistry(baseURL string) *socket.Registry {
	return socket.NewRegistry(config.Realtime{
		BaseURL:      baseURL,
		Reconnection: config.Reconnection{Attempts: 3, DelayMs: 20},
	}, auth.NewMemoryStore(""))
}

func connectService(t *testing.T, registry *socket.Registry, channel model.Channel, inbox chan received) *chat.Service {
	t.Helper()

	ready := make(chan struct{}, 1)
	svc := chat.NewService(registry, channel, chat.Handlers{
		OnMessage: func(conversationID string, msg model.Message) {
			inbox <- received{conversationID: conversationID, msg: msg}
		},
		OnReady: func() { ready <- struct{}{} },
	})
	svc.Connect()

	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("channel never became ready")
	}
	return svc
}

func TestServiceRoomBroadcast(t *testing.T) {
	baseURL := startBackend(t)

	inboxA := make(chan received, 4)
	inboxB := make(chan received, 4)

	svcA := connectService(t, newRegistry(baseURL), model.ChannelShop, inboxA)
	defer svcA.Disconnect()
	svcB := connectService(t, newRegistry(baseURL), model.ChannelShop, inboxB)
	defer svcB.Disconnect()

	svcA.JoinConversation("c1")
	svcB.JoinConversation("c1")
	// Let the server process both joins before fan-out starts.
	time.Sleep(250 * time.Millisecond)

	svcB.SendMessage("c1", "hello from B", nil, nil)

	select {
	case got := <-inboxA:
		assert.Equal(t, "c1", got.conversationID)
		assert.Equal(t, "hello from B", got.msg.Body)
		assert.Equal(t, model.StatusSent, got.msg.Status)
	case <-time.After(3 * time.Second):
		t.Fatal("A never received B's message")
	}

	// The sender is excluded from its own broadcast.
	select {
	case got := <-inboxB:
		t.Fatalf("B received its own message: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestServiceAIChannelReplies(t *testing.T) {
	baseURL := startBackend(t)

	inbox := make(chan received, 4)
	svc := connectService(t, newRegistry(baseURL), model.ChannelAI, inbox)
	defer svc.Disconnect()

	svc.JoinConversation("ai-u1")
	svc.SendMessage("ai-u1", "ping", nil, nil)

	select {
	case got := <-inbox:
		assert.Equal(t, "ai-u1", got.conversationID)
		assert.Equal(t, "assistant", got.msg.SenderID)
		assert.Equal(t, "You said: ping", got.msg.Body)
		assert.Equal(t, model.RoleAssistant, got.msg.Metadata["role"])
	case <-time.After(3 * time.Second):
		t.Fatal("assistant reply never arrived")
	}
}

func TestServiceConnectIsIdempotent(t *testing.T) {
	baseURL := startBackend(t)

	inbox := make(chan received, 8)
	registry := newRegistry(baseURL)
	svc := connectService(t, registry, model.ChannelAI, inbox)
	defer svc.Disconnect()

	// A second connect must not double-register listeners.
	svc.Connect()

	svc.JoinConversation("ai-u2")
	svc.SendMessage("ai-u2", "once", nil, nil)

	select {
	case <-inbox:
	case <-time.After(3 * time.Second):
		t.Fatal("no reply")
	}
	select {
	case got := <-inbox:
		t.Fatalf("duplicate delivery: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestServiceTyping(t *testing.T) {
	baseURL := startBackend(t)

	typingA := make(chan model.TypingEvent, 2)
	readyA := make(chan struct{}, 1)
	svcA := chat.NewService(newRegistry(baseURL), model.ChannelShop, chat.Handlers{
		OnTyping: func(ev model.TypingEvent) { typingA <- ev },
		OnReady:  func() { readyA <- struct{}{} },
	})
	svcA.Connect()
	defer svcA.Disconnect()
	select {
	case <-readyA:
	case <-time.After(3 * time.Second):
		t.Fatal("A not ready")
	}

	inboxB := make(chan received, 2)
	svcB := connectService(t, newRegistry(baseURL), model.ChannelShop, inboxB)
	defer svcB.Disconnect()

	svcA.JoinConversation("c2")
	svcB.JoinConversation("c2")
	time.Sleep(250 * time.Millisecond)

	svcB.SendTyping("c2", true)

	select {
	case ev := <-typingA:
		require.Equal(t, "c2", ev.ConversationID)
		assert.True(t, ev.IsTyping)
		assert.NotEmpty(t, ev.UserID)
	case <-time.After(3 * time.Second):
		t.Fatal("typing indicator never arrived")
	}
}
