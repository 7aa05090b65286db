// Package chat owns the visible message thread. Sends are optimistic: the
// user's entry appears immediately and is reconciled with the server's
// confirmed pair, or rolled back to an error notice, once the exchange
// resolves.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cicada/internal/api"
	"cicada/internal/models"
)

// ErrorNotice is the fixed assistant-role text shown when a send fails. The
// underlying failure is logged, never shown.
const ErrorNotice = "Sorry, I encountered an error processing your message. Please try again."

// sendState is the optimistic-send lifecycle. Transitions:
// idle -> pending -> {confirmed, failed} -> pending (next send).
type sendState int

const (
	sendIdle sendState = iota
	sendPending
	sendConfirmed
	sendFailed
)

type Thread struct {
	client *api.Client
	logger *zap.Logger

	mu            sync.Mutex
	messages      []models.ChatMessage
	state         sendState
	historyLoaded bool
}

func NewThread(client *api.Client, logger *zap.Logger) *Thread {
	return &Thread{
		client: client,
		logger: logger,
		state:  sendIdle,
	}
}

// Messages returns a snapshot of the thread in insertion order.
func (t *Thread) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Pending reports whether a send is outstanding. Input is disabled while
// this is true.
func (t *Thread) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == sendPending
}

// HistoryLoaded distinguishes "history not yet loaded" from "loaded and
// empty"; the two render differently.
func (t *Thread) HistoryLoaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.historyLoaded
}

// LoadHistory fetches the persisted thread. On failure the local thread is
// left as the last known-good value; the loaded flag is set regardless so
// the UI leaves its loading state.
func (t *Thread) LoadHistory(ctx context.Context) error {
	msgs, err := t.client.History(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.historyLoaded = true
	if err != nil {
		t.logger.Warn("loading chat history failed", zap.Error(err))
		return err
	}
	t.messages = msgs
	return nil
}

// Send submits one message. Blank input, or a send already pending, is a
// no-op and returns false. The optimistic user entry is visible before the
// network round trip; on success it is replaced by the server's confirmed
// pair, on failure by a single error notice. The pending state always ends.
func (t *Thread) Send(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	t.mu.Lock()
	if t.state == sendPending {
		t.mu.Unlock()
		return false
	}
	t.state = sendPending
	optimistic := models.ChatMessage{
		ID:          uuid.NewString(),
		MessageType: models.TypeUser,
		Content:     text,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	t.messages = append(t.messages, optimistic)
	t.mu.Unlock()

	resp, err := t.client.SendMessage(ctx, text)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.remove(optimistic.ID)
	if err != nil {
		t.logger.Warn("send failed", zap.Error(err))
		t.messages = append(t.messages, models.ChatMessage{
			ID:          uuid.NewString(),
			MessageType: models.TypeAI,
			Content:     ErrorNotice,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
		t.state = sendFailed
		return true
	}

	t.messages = append(t.messages, resp.UserMessage, resp.AIResponse)
	t.state = sendConfirmed
	return true
}

// Reset clears the persisted thread. On failure the local thread is left
// untouched; the error is logged and returned for the caller to decide
// whether to surface it.
func (t *Thread) Reset(ctx context.Context) error {
	if err := t.client.ClearChat(ctx); err != nil {
		t.logger.Warn("clearing chat failed", zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.state = sendIdle
	return nil
}

// Forget drops all local state on logout. The server-side thread is
// untouched; the next authenticated user loads their own history.
func (t *Thread) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.state = sendIdle
	t.historyLoaded = false
}

// remove deletes the message with the given id, if present. Callers hold
// t.mu.
func (t *Thread) remove(id string) {
	for i, m := range t.messages {
		if m.ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}
