package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"storefront-realtime/internal/config"
	"storefront-realtime/internal/model"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024
)

// Send pings to peer with this period. Must be less than pongWait.
var pingPeriod = (pongWait * 9) / 10

// ErrNotConnected is returned by Emit when no live connection exists.
var ErrNotConnected = errors.New("socket: not connected")

type handlerEntry struct {
	id   int
	fn   func(json.RawMessage)
	once bool
}

// Transport is one websocket connection to a namespace endpoint. It frames
// traffic as event envelopes, keeps the connection alive with pings, retries
// dials per its reconnection policy, and synthesizes the local lifecycle
// events (connect, disconnect, connect_error, reconnect_attempt, reconnect,
// reconnect_error) alongside server-sent ones.
type Transport struct {
	endpoint string
	reconn   config.Reconnection

	mu         sync.Mutex
	auth       Auth
	conn       *websocket.Conn
	connected  bool
	connecting bool
	closing    bool
	nextID     int
	handlers   map[string][]*handlerEntry

	writeMu sync.Mutex
}

func newTransport(endpoint string, a Auth, reconn config.Reconnection) *Transport {
	return &Transport{
		endpoint: endpoint,
		auth:     a,
		reconn:   reconn,
		handlers: make(map[string][]*handlerEntry),
	}
}

// Endpoint returns the namespace endpoint URL (without auth parameters).
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Connect starts dialing in the background. Calling it while already
// connecting or connected is a no-op.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.connected || t.connecting {
		t.mu.Unlock()
		return
	}
	t.connecting = true
	t.closing = false
	t.mu.Unlock()

	go t.dialLoop(false)
}

// IsConnected reports whether a live connection exists.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// IsConnecting reports whether a dial loop is in flight.
func (t *Transport) IsConnecting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connecting
}

// SetAuth replaces the auth payload used on the next dial.
func (t *Transport) SetAuth(a Auth) {
	t.mu.Lock()
	t.auth = a
	t.mu.Unlock()
}

// Emit sends one event envelope. Fire-and-forget: there is no
// acknowledgement, only a write error.
func (t *Transport) Emit(event string, data interface{}) error {
	t.mu.Lock()
	conn := t.conn
	connected := t.connected
	t.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	env := model.NewEnvelope(event, data)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}

// On registers a handler for an event and returns its unsubscribe function.
// Callers rely on the returned func for listener cleanup.
func (t *Transport) On(event string, fn func(json.RawMessage)) func() {
	return t.addHandler(event, fn, false)
}

// Once registers a handler removed after its first invocation.
func (t *Transport) Once(event string, fn func(json.RawMessage)) func() {
	return t.addHandler(event, fn, true)
}

func (t *Transport) addHandler(event string, fn func(json.RawMessage), once bool) func() {
	t.mu.Lock()
	t.nextID++
	entry := &handlerEntry{id: t.nextID, fn: fn, once: once}
	t.handlers[event] = append(t.handlers[event], entry)
	id := entry.id
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		list := t.handlers[event]
		for i, e := range list {
			if e.id == id {
				t.handlers[event] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// RemoveAllListeners drops every registered handler.
func (t *Transport) RemoveAllListeners() {
	t.mu.Lock()
	t.handlers = make(map[string][]*handlerEntry)
	t.mu.Unlock()
}

// Close shuts the connection down and suppresses automatic reconnection.
func (t *Transport) Close() {
	t.mu.Lock()
	t.closing = true
	conn := t.conn
	t.conn = nil
	t.connected = false
	t.mu.Unlock()

	if conn != nil {
		t.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		t.writeMu.Unlock()
		conn.Close()
	}
}

// dial resolves auth and performs one websocket dial. Auth values travel as
// query parameters, matching what the backend reads on upgrade.
func (t *Transport) dial() (*websocket.Conn, error) {
	t.mu.Lock()
	payload := t.auth.Resolve()
	t.mu.Unlock()

	endpoint := t.endpoint
	if len(payload) > 0 {
		u, err := url.Parse(t.endpoint)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, v := range payload {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	return conn, err
}

// dialLoop runs the bounded retry policy. reconnecting marks a loop started
// after a dropped connection rather than an explicit Connect.
func (t *Transport) dialLoop(reconnecting bool) {
	attempts := t.reconn.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(t.reconn.DelayMs) * time.Millisecond

	for i := 0; i < attempts; i++ {
		t.mu.Lock()
		closing := t.closing
		t.mu.Unlock()
		if closing {
			break
		}

		retry := reconnecting || i > 0
		if retry {
			t.dispatch(model.EventReconnectAttempt, mustRaw(map[string]int{"attempt": i + 1}))
		}

		conn, err := t.dial()
		if err != nil {
			if retry {
				t.dispatch(model.EventReconnectError, mustRaw(map[string]string{"error": err.Error()}))
			}
			t.dispatch(model.EventConnectError, mustRaw(map[string]string{"error": err.Error()}))
			if i < attempts-1 {
				time.Sleep(delay)
			}
			continue
		}

		t.mu.Lock()
		if t.closing {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.conn = conn
		t.connected = true
		t.connecting = false
		t.mu.Unlock()

		if retry {
			t.dispatch(model.EventReconnect, mustRaw(map[string]int{"attempt": i + 1}))
		}
		t.dispatch(model.EventConnect, nil)

		go t.readPump(conn)
		go t.pingLoop(conn)
		return
	}

	t.mu.Lock()
	t.connecting = false
	t.mu.Unlock()
}

// readPump is the single reader for one connection. Inbound events are
// dispatched synchronously, preserving the order the transport received them.
func (t *Transport) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var reason string
	for {
		var env model.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			reason = err.Error()
			break
		}
		if env.Event == "" {
			continue
		}
		t.dispatch(env.Event, env.Data)
	}

	t.mu.Lock()
	wasCurrent := t.conn == conn
	if wasCurrent {
		t.conn = nil
		t.connected = false
	}
	closing := t.closing
	t.mu.Unlock()
	conn.Close()

	if !wasCurrent {
		return
	}

	t.dispatch(model.EventDisconnect, mustRaw(map[string]string{"reason": reason}))

	if !closing {
		t.mu.Lock()
		t.connecting = true
		t.mu.Unlock()
		go t.dialLoop(true)
	}
}

func (t *Transport) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		current := t.conn == conn
		t.mu.Unlock()
		if !current {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return
		}
	}
}

// dispatch invokes handlers for one event. Once-handlers are removed before
// invocation so a handler re-registering itself observes a clean slate.
func (t *Transport) dispatch(event string, data json.RawMessage) {
	t.mu.Lock()
	list := t.handlers[event]
	fns := make([]func(json.RawMessage), 0, len(list))
	kept := list[:0]
	for _, e := range list {
		fns = append(fns, e.fn)
		if !e.once {
			kept = append(kept, e)
		}
	}
	t.handlers[event] = kept
	t.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

func mustRaw(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
