package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the current bearer token, or "" when the user is signed
// out. Implementations must be safe for concurrent use.
type TokenSource interface {
	Token() string
}

// MemoryStore is a TokenSource backed by an in-process value. Used by the
// CLI and by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// FileStore reads the bearer token from a file on every call, so an external
// login flow can rotate it without restarting the process.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Save writes a token back to the store's file.
func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0600)
}

// Expired reports whether a JWT carries an exp claim in the past. The token
// is parsed without signature verification: the client cannot verify the
// server's key and only needs to avoid dialing with a stale token. Tokens
// that fail to parse, or carry no exp claim, are treated as live and left
// for the server to reject.
func Expired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
