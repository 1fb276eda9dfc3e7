package socket

import (
	"encoding/json"
	"sync"

	"storefront-realtime/internal/model"
)

// Connection status values reported by Manager.Status.
const (
	StatusIdle       = "idle"
	StatusConnecting = "connecting"
	StatusConnected  = "connected"
)

// Manager owns at most one live transport for its namespace and exposes a
// small deterministic lifecycle API around it. All access to the transport
// goes through the manager; the handle is never shared.
type Manager struct {
	factory *Factory
	desc    Descriptor

	mu        sync.Mutex
	transport *Transport
	status    string
}

func NewManager(factory *Factory, desc Descriptor) *Manager {
	return &Manager{
		factory: factory,
		desc:    desc,
		status:  StatusIdle,
	}
}

// Connect returns the namespace transport, building one if absent or when
// force is set. Repeated calls without force while connecting or connected
// return the existing transport with no side effects.
func (m *Manager) Connect(force bool) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != nil && !force {
		m.transport.Connect()
		return m.transport
	}

	if m.transport != nil {
		m.transport.RemoveAllListeners()
		m.transport.Close()
		m.transport = nil
	}

	t := m.buildTransport()
	m.transport = t
	m.status = StatusConnecting

	if !m.desc.AutoConnect {
		t.Connect()
	}
	return t
}

// buildTransport constructs the transport with the manager's status listeners
// attached. The listeners are persistent, not one-shot, so every later
// connect cycle (reconnects, RefreshAuth) keeps the recorded status honest.
func (m *Manager) buildTransport() *Transport {
	t := m.factory.Build(m.desc)

	t.On(model.EventConnect, func(json.RawMessage) {
		m.mu.Lock()
		m.status = StatusConnected
		m.mu.Unlock()
	})
	t.On(model.EventConnectError, func(json.RawMessage) {
		m.mu.Lock()
		m.status = StatusIdle
		m.mu.Unlock()
	})
	return t
}

// Disconnect closes the transport. With clearInstance the handle and all of
// its listeners are dropped, so a later Connect rebuilds from scratch.
func (m *Manager) Disconnect(clearInstance bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport == nil {
		return
	}
	m.transport.Close()
	if clearInstance {
		m.transport.RemoveAllListeners()
		m.transport = nil
	}
	m.status = StatusIdle
}

// RefreshAuth replaces the auth payload on the existing transport. When the
// connection is live it cycles it so the server re-authenticates the session.
// No-op before the first connect. A zero Auth restores the descriptor's
// default provider.
func (m *Manager) RefreshAuth(a Auth) {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()

	if t == nil {
		return
	}
	if a.IsZero() {
		a = m.desc.Auth
	}
	t.SetAuth(a)

	if t.IsConnected() {
		t.Close()
		m.mu.Lock()
		m.status = StatusConnecting
		m.mu.Unlock()
		t.Connect()
	}
}

// Emit forwards one event to the transport, lazily creating it so emitters
// do not need an explicit Connect first.
func (m *Manager) Emit(event string, data interface{}) error {
	return m.lazyTransport().Emit(event, data)
}

// On registers a listener, lazily creating the transport so listeners can be
// attached before the first explicit Connect. Returns the unsubscribe func.
func (m *Manager) On(event string, fn func(json.RawMessage)) func() {
	return m.lazyTransport().On(event, fn)
}

// Once registers a one-shot listener.
func (m *Manager) Once(event string, fn func(json.RawMessage)) func() {
	return m.lazyTransport().Once(event, fn)
}

// Status reports idle, connecting or connected, preferring the live transport
// flags over the last recorded state.
func (m *Manager) Status() string {
	m.mu.Lock()
	t := m.transport
	status := m.status
	m.mu.Unlock()

	if t != nil {
		if t.IsConnected() {
			return StatusConnected
		}
		if t.IsConnecting() {
			return StatusConnecting
		}
	}
	return status
}

func (m *Manager) lazyTransport() *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transport == nil {
		m.transport = m.buildTransport()
	}
	return m.transport
}
