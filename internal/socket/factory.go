package socket

import (
	"encoding/json"
	"strings"

	"storefront-realtime/internal/config"
	"storefront-realtime/internal/model"

	"github.com/sirupsen/logrus"
)

// Descriptor fixes the construction parameters of one namespace connection.
// The namespace is immutable: reconnecting to a different namespace requires
// a new descriptor.
type Descriptor struct {
	Namespace    string
	Auth         Auth
	DebugLabel   string
	AutoConnect  bool
	Reconnection config.Reconnection
}

// Factory builds transports against one base URL, with a shared debug flag.
type Factory struct {
	baseURL string
	debug   bool
}

func NewFactory(baseURL string, debug bool) *Factory {
	return &Factory{baseURL: baseURL, debug: debug}
}

// Build constructs the transport for a descriptor. The endpoint is the base
// URL with its trailing slash stripped, joined to the normalized namespace,
// so "wss://host/" + "chat/admin" becomes "wss://host/chat/admin".
func (f *Factory) Build(d Descriptor) *Transport {
	endpoint := strings.TrimRight(f.baseURL, "/") + NormalizeNamespace(d.Namespace)
	t := newTransport(endpoint, d.Auth, d.Reconnection)

	if f.debug {
		attachDebug(t, d.DebugLabel)
	}
	if d.AutoConnect {
		t.Connect()
	}
	return t
}

// NormalizeNamespace enforces the leading slash on a namespace path.
func NormalizeNamespace(ns string) string {
	if ns == "" {
		return "/"
	}
	if !strings.HasPrefix(ns, "/") {
		return "/" + ns
	}
	return ns
}

// attachDebug wires observational listeners for the connection lifecycle.
// These log and nothing else; state transitions never depend on them.
func attachDebug(t *Transport, label string) {
	log := logrus.WithField("socket", label)

	t.On(model.EventConnect, func(json.RawMessage) {
		log.Debug("connected")
	})
	t.On(model.EventDisconnect, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Debug("disconnected")
	})
	t.On(model.EventReconnectAttempt, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Debug("reconnect attempt")
	})
	t.On(model.EventReconnect, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Debug("reconnected")
	})
	t.On(model.EventReconnectError, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Warn("reconnect error")
	})
	t.On(model.EventConnectError, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Warn("connect error")
	})
	t.On(model.EventError, func(data json.RawMessage) {
		log.WithField("payload", rawString(data)).Warn("socket error")
	})
}

func rawString(data json.RawMessage) string {
	if data == nil {
		return ""
	}
	return string(data)
}
