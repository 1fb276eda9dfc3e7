package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"storefront-realtime/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists one bounded thread snapshot per user in a local sqlite
// database. It is a hydration cache, not a source of truth: the remote
// history always wins on the next sync.
type Store struct {
	db          *sql.DB
	maxMessages int
}

// NewStore opens (and migrates) the thread cache at path. maxMessages bounds
// the history length kept per user; values below 1 fall back to 200.
func NewStore(path string, maxMessages int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open thread cache: %w", err)
	}

	if maxMessages < 1 {
		maxMessages = 200
	}

	store := &Store{db: db, maxMessages: maxMessages}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ai_threads (
		user_id    TEXT PRIMARY KEY,
		messages   TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the cached message list for a user. A user with no snapshot
// gets an empty list, not an error.
func (s *Store) Load(userID string) ([]model.Message, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT messages FROM ai_threads WHERE user_id = ?", userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("thread cache read: %w", err)
	}

	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("thread cache decode: %w", err)
	}
	return msgs, nil
}

// Save upserts a user's snapshot, trimmed to the newest maxMessages entries.
// Concurrent saves for the same user are last-write-wins.
func (s *Store) Save(userID string, msgs []model.Message) error {
	if len(msgs) > s.maxMessages {
		msgs = msgs[len(msgs)-s.maxMessages:]
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("thread cache encode: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO ai_threads (user_id, messages, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("thread cache write: %w", err)
	}
	return nil
}

// Clear removes a user's snapshot.
func (s *Store) Clear(userID string) error {
	_, err := s.db.Exec("DELETE FROM ai_threads WHERE user_id = ?", userID)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
