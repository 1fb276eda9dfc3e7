package socket

import (
	"storefront-realtime/internal/auth"
)

// Auth is the connection auth payload: either a static map or a zero-argument
// provider resolved at dial time. The zero value means "no auth".
type Auth struct {
	static  map[string]interface{}
	dynamic func() map[string]interface{}
}

// StaticAuth wraps a fixed auth payload.
func StaticAuth(payload map[string]interface{}) Auth {
	return Auth{static: payload}
}

// DynamicAuth wraps a provider invoked on every dial, so rotated credentials
// are picked up without rebuilding the connection.
func DynamicAuth(fn func() map[string]interface{}) Auth {
	return Auth{dynamic: fn}
}

// TokenAuth is the default provider: it reads the bearer token from the given
// source and supplies {token}. Signed-out and expired tokens resolve to nil so
// the dial proceeds unauthenticated and the server decides.
func TokenAuth(src auth.TokenSource) Auth {
	return DynamicAuth(func() map[string]interface{} {
		tok := src.Token()
		if tok == "" || auth.Expired(tok) {
			return nil
		}
		return map[string]interface{}{"token": tok}
	})
}

// Resolve returns the payload for the next dial. A static payload wins over
// the dynamic provider.
func (a Auth) Resolve() map[string]interface{} {
	if a.static != nil {
		return a.static
	}
	if a.dynamic != nil {
		return a.dynamic()
	}
	return nil
}

// IsZero reports whether no auth was configured.
func (a Auth) IsZero() bool {
	return a.static == nil && a.dynamic == nil
}
