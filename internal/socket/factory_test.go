package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNamespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chat/admin", "/chat/admin"},
		{"/chat/admin", "/chat/admin"},
		{"", "/"},
		{"/", "/"},
		{"notifications", "/notifications"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNamespace(tt.in), "input %q", tt.in)
	}
}

func TestFactoryBuildEndpoint(t *testing.T) {
	f := NewFactory("wss://host/", false)
	tr := f.Build(Descriptor{Namespace: "/chat/admin"})
	assert.Equal(t, "wss://host/chat/admin", tr.Endpoint())

	// A missing leading slash is normalized before the endpoint is built.
	tr = f.Build(Descriptor{Namespace: "chat/admin"})
	assert.Equal(t, "wss://host/chat/admin", tr.Endpoint())

	f = NewFactory("ws://localhost:8080", false)
	tr = f.Build(Descriptor{Namespace: "/notifications"})
	assert.Equal(t, "ws://localhost:8080/notifications", tr.Endpoint())
}

func TestAuthResolvePrecedence(t *testing.T) {
	static := StaticAuth(map[string]interface{}{"token": "fixed"})
	assert.Equal(t, "fixed", static.Resolve()["token"])

	dynamic := DynamicAuth(func() map[string]interface{} {
		return map[string]interface{}{"token": "fresh"}
	})
	assert.Equal(t, "fresh", dynamic.Resolve()["token"])

	var zero Auth
	assert.True(t, zero.IsZero())
	assert.Nil(t, zero.Resolve())
}
