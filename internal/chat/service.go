package chat

import (
	"encoding/json"
	"errors"
	"sync"

	"storefront-realtime/internal/model"
	"storefront-realtime/internal/socket"

	"github.com/sirupsen/logrus"
)

// Handlers are the typed callbacks inbound events demultiplex into. Nil
// callbacks are skipped.
type Handlers struct {
	OnMessage func(conversationID string, msg model.Message)
	OnTyping  func(ev model.TypingEvent)
	OnError   func(err error)
	OnReady   func()
}

// Service translates chat intents into room-scoped socket events on one
// channel's namespace and routes inbound events to the Handlers. It borrows
// the namespace connection from the registry; it never owns it, since the
// notification layer or another service may be using the same namespace.
type Service struct {
	registry *socket.Registry
	channel  model.Channel
	handlers Handlers

	mu        sync.Mutex
	connected bool
	unsubs    []func()

	log *logrus.Entry
}

func NewService(registry *socket.Registry, channel model.Channel, handlers Handlers) *Service {
	return &Service{
		registry: registry,
		channel:  channel,
		handlers: handlers,
		log:      logrus.WithField("chat_channel", string(channel)),
	}
}

// Connect resolves the channel's namespace manager, connects it and attaches
// the four inbound listeners. A second call is a no-op so listeners are never
// registered twice.
func (s *Service) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return
	}

	// Listeners go on before the dial so nothing sent during the handshake
	// is missed.
	mgr := s.registry.ForChannel(s.channel)
	s.unsubs = []func(){
		mgr.On(model.EventChatReceive, s.handleReceive),
		mgr.On(model.EventChatTyping, s.handleTyping),
		mgr.On(model.EventError, s.handleError),
		mgr.On(model.EventSystemReady, s.handleReady),
	}
	mgr.Connect(false)
	s.connected = true
}

// Disconnect removes the service's listeners and clears local state. The
// shared namespace connection stays up.
func (s *Service) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.connected = false
}

// JoinConversation subscribes this connection to a conversation's room. No
// local membership is tracked; re-joins are idempotent on the server.
func (s *Service) JoinConversation(conversationID string) {
	s.emit(model.EventChatJoin, model.RoomPayload{ConversationID: conversationID})
}

// LeaveConversation unsubscribes from a conversation's room.
func (s *Service) LeaveConversation(conversationID string) {
	s.emit(model.EventChatLeave, model.RoomPayload{ConversationID: conversationID})
}

// SendMessage emits a message-send event without waiting for acknowledgement;
// confirmation arrives asynchronously on chat:message:receive or through the
// REST round trip run by the sync engine.
func (s *Service) SendMessage(conversationID, body string, attachments []string, metadata map[string]interface{}) {
	s.emit(model.EventChatSend, model.SendPayload{
		ConversationID: conversationID,
		Message:        body,
		Attachments:    attachments,
		Metadata:       metadata,
	})
}

// SendTyping emits a typing indicator. Fire-and-forget.
func (s *Service) SendTyping(conversationID string, isTyping bool) {
	s.emit(model.EventChatTyping, model.TypingPayload{
		ConversationID: conversationID,
		IsTyping:       &isTyping,
	})
}

func (s *Service) emit(event string, payload interface{}) {
	mgr := s.registry.ForChannel(s.channel)
	if err := mgr.Emit(event, payload); err != nil {
		s.log.WithError(err).WithField("event", event).Warn("chat emit dropped")
	}
}

// handleReceive normalizes an inbound message. Payloads missing the
// conversation id or body are dropped silently: a partially rolled-out server
// change must not crash the UI.
func (s *Service) handleReceive(data json.RawMessage) {
	var payload model.ReceivePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.log.WithError(err).Debug("unparseable message payload dropped")
		return
	}
	msg, ok := model.NormalizeReceived(payload)
	if !ok {
		s.log.Debug("malformed message payload dropped")
		return
	}
	if s.handlers.OnMessage != nil {
		s.handlers.OnMessage(msg.ConversationID, msg)
	}
}

func (s *Service) handleTyping(data json.RawMessage) {
	var payload model.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	ev, ok := model.NormalizeTyping(payload)
	if !ok {
		return
	}
	if s.handlers.OnTyping != nil {
		s.handlers.OnTyping(ev)
	}
}

func (s *Service) handleError(data json.RawMessage) {
	if s.handlers.OnError == nil {
		return
	}
	var payload model.ErrorPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		s.handlers.OnError(errors.New("chat channel error"))
		return
	}
	s.handlers.OnError(errors.New(payload.Message))
}

func (s *Service) handleReady(json.RawMessage) {
	if s.handlers.OnReady != nil {
		s.handlers.OnReady()
	}
}
