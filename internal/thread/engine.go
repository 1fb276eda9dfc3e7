package thread

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront-realtime/internal/api"
	"storefront-realtime/internal/model"

	"github.com/sirupsen/logrus"
)

// Fallback texts surfaced as state, never as panics.
const (
	hydrateErrText = "failed to restore conversation history"
	emptyReplyText = "The assistant did not send a reply. Please try again."
)

// Cache persists thread snapshots per user. Implementations are best-effort:
// errors are reported to the engine, never thrown past it.
type Cache interface {
	Load(userID string) ([]model.Message, error)
	Save(userID string, msgs []model.Message) error
	Clear(userID string) error
}

// Sender is the remote collaborator that delivers one message and returns the
// peer response.
type Sender interface {
	SendAIMessage(ctx context.Context, body string) (*api.SendMessageResponse, error)
}

// Engine is the thread-level sync state machine. It appends locally-authored
// messages optimistically, settles their status after the remote round trip,
// merges the peer response, and persists a snapshot before and after every
// transition.
//
// A mutex keeps thread state race-free, but overlapping Send calls for the
// same user are not queued: their remote round trips may overlap and the
// cache persists interleave last-write-wins, same as the original UI-gated
// behavior.
type Engine struct {
	mu      sync.Mutex
	cache   Cache
	sender  Sender
	threads map[string][]model.Message
	metas   map[string]model.ThreadMeta

	log *logrus.Entry
}

func NewEngine(cache Cache, sender Sender) *Engine {
	return &Engine{
		cache:   cache,
		sender:  sender,
		threads: make(map[string][]model.Message),
		metas:   make(map[string]model.ThreadMeta),
		log:     logrus.WithField("component", "thread_engine"),
	}
}

// Hydrate replaces the in-memory thread with the cached snapshot. On a cache
// read failure the thread is left untouched and the failure becomes meta
// state.
func (e *Engine) Hydrate(userID string) {
	if userID == "" {
		return
	}

	e.setMeta(userID, model.ThreadMeta{Status: model.ThreadHydrating})

	msgs, err := e.cache.Load(userID)
	if err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("thread hydrate failed")
		e.setMeta(userID, model.ThreadMeta{Status: model.ThreadError, Error: hydrateErrText})
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	now := time.Now()
	e.mu.Lock()
	e.threads[userID] = msgs
	e.metas[userID] = model.ThreadMeta{Status: model.ThreadIdle, LastSyncedAt: &now}
	e.mu.Unlock()
}

// Send appends an optimistic pending message, persists the snapshot, runs the
// remote send, settles the message to sent or failed, merges the peer reply
// and persists once more. Failures become message and meta state; nothing is
// returned to throw. The optimistic message id is returned, "" for a no-op.
func (e *Engine) Send(ctx context.Context, userID, body, senderName string) string {
	trimmed := strings.TrimSpace(body)
	if userID == "" || trimmed == "" {
		return ""
	}

	msg := model.NewClientMessage(aiConversationID(userID), userID, senderName, trimmed)
	msg.Metadata["role"] = model.RoleUser

	e.mu.Lock()
	e.metas[userID] = model.ThreadMeta{Status: model.ThreadSending}
	e.threads[userID] = append(e.threads[userID], msg)
	snapshot := copyThread(e.threads[userID])
	e.mu.Unlock()

	// Pre-confirmation persist so a crash mid-send still shows the message.
	if err := e.cache.Save(userID, snapshot); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("pre-send persist failed")
	}

	// The final persist runs last on every path, so the cache always holds
	// the settled status rather than the transient pending one.
	defer func() {
		e.mu.Lock()
		final := copyThread(e.threads[userID])
		e.mu.Unlock()
		if err := e.cache.Save(userID, final); err != nil {
			e.log.WithError(err).WithField("user_id", userID).Warn("post-send persist failed")
		}
	}()

	resp, err := e.sender.SendAIMessage(ctx, trimmed)
	if err != nil {
		e.mu.Lock()
		e.settleMessage(userID, msg.ID, model.StatusFailed, err.Error())
		e.metas[userID] = model.ThreadMeta{Status: model.ThreadError, Error: err.Error()}
		e.mu.Unlock()
		return msg.ID
	}

	replyBody := resp.ReplyText()
	if replyBody == "" {
		replyBody = emptyReplyText
	}

	reply := model.Message{
		ID:             model.ClientMessageID(),
		ConversationID: aiConversationID(userID),
		SenderID:       "assistant",
		Body:           replyBody,
		Type:           model.TypeText,
		CreatedAt:      time.Now(),
		Metadata:       map[string]interface{}{"role": model.RoleAssistant},
		Status:         model.StatusSent,
		IsDelivered:    true,
		IsRead:         true,
	}
	if resp.Data != nil && resp.Data.ID != "" {
		reply.ID = resp.Data.ID
	}

	now := time.Now()
	e.mu.Lock()
	e.settleMessage(userID, msg.ID, model.StatusSent, "")
	e.threads[userID] = append(e.threads[userID], reply)
	e.metas[userID] = model.ThreadMeta{Status: model.ThreadIdle, LastSyncedAt: &now}
	e.mu.Unlock()

	return msg.ID
}

// Clear resets a user's thread and meta and drops the cached snapshot, so a
// later Hydrate cannot resurrect the cleared messages. Explicit user action
// only.
func (e *Engine) Clear(userID string) {
	e.mu.Lock()
	delete(e.threads, userID)
	delete(e.metas, userID)
	e.mu.Unlock()

	if err := e.cache.Clear(userID); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("thread cache clear failed")
	}
}

// Thread returns a copy of the user's message list in insertion order.
func (e *Engine) Thread(userID string) []model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyThread(e.threads[userID])
}

// Meta returns the user's thread meta; idle when the thread does not exist.
func (e *Engine) Meta(userID string) model.ThreadMeta {
	e.mu.Lock()
	defer e.mu.Unlock()
	meta, ok := e.metas[userID]
	if !ok {
		return model.ThreadMeta{Status: model.ThreadIdle}
	}
	return meta
}

// settleMessage moves one message out of pending. Settled messages never move
// back; callers hold the lock.
func (e *Engine) settleMessage(userID, messageID, status, errText string) {
	msgs := e.threads[userID]
	for i := range msgs {
		if msgs[i].ID != messageID {
			continue
		}
		if msgs[i].Status != model.StatusPending {
			return
		}
		msgs[i].Status = status
		if status == model.StatusSent {
			msgs[i].IsDelivered = true
		}
		if errText != "" {
			if msgs[i].Metadata == nil {
				msgs[i].Metadata = map[string]interface{}{}
			}
			msgs[i].Metadata["error"] = errText
		}
		return
	}
}

func (e *Engine) setMeta(userID string, meta model.ThreadMeta) {
	e.mu.Lock()
	e.metas[userID] = meta
	e.mu.Unlock()
}

func copyThread(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

func aiConversationID(userID string) string {
	return "ai-" + userID
}
