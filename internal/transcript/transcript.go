// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the message sequence of the active conversation
// and the optimistic send protocol.
//
// A transcript is either a Draft (no conversation id yet, starts with the
// welcome message) or Persisted (bound to a backend conversation id). The
// Draft to Persisted transition happens exactly once, when the first
// successful exchange comes back with a server-assigned conversation id.
//
// Sends are optimistic: the user message is appended immediately with a
// provisional negative id and reconciled when the exchange settles. At most
// one send is in flight per transcript. Every outstanding exchange carries
// an opaque token; a response whose token no longer matches (conversation
// switched, transcript reset, logout) is discarded instead of applied.
package transcript

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/model"
)

// ErrorReplyText is the synthetic bot reply appended when an exchange fails
// for any reason other than session expiry.
const ErrorReplyText = "Sorry, I encountered an error. Please make sure the backend server is running."

// Local validation errors, raised before any network call.
var (
	// ErrEmptyPrompt indicates the prompt trimmed to nothing.
	ErrEmptyPrompt = errors.New("prompt must not be empty")

	// ErrSendInFlight indicates a send is already outstanding for this
	// transcript.
	ErrSendInFlight = errors.New("a send is already in flight")
)

// State is the transcript lifecycle state.
type State string

const (
	// StateDraft means no backend conversation exists yet.
	StateDraft State = "draft"
	// StatePersisted means the transcript is bound to a backend
	// conversation id.
	StatePersisted State = "persisted"
)

// Exchange identifies one outstanding send. The token ties the eventual
// response back to the transcript generation that issued it; everything
// else is a snapshot taken at send time.
type Exchange struct {
	Token          uuid.UUID
	LocalID        int64
	Prompt         string
	ConversationID *int64
}

// Result reports what applying a successful response did.
type Result struct {
	// NewConversation is true when this exchange performed the Draft to
	// Persisted transition. The caller should refresh the directory.
	NewConversation bool
	// Bound is true when the transcript is bound to a backend conversation
	// after this exchange. A reply to a Draft send may omit the conversation
	// id, in which case the transcript stays Draft and no directory entry
	// exists for it.
	Bound bool
	// ConversationID is the bound conversation id; meaningful only when
	// Bound is true.
	ConversationID int64
}

// Transcript is the message sequence of the active conversation. Safe for
// concurrent use.
type Transcript struct {
	mu             sync.Mutex
	state          State
	conversationID int64
	messages       []model.Message
	nextLocalID    int64
	inflight       uuid.UUID
}

// New returns a Draft transcript holding only the welcome message.
func New() *Transcript {
	t := &Transcript{}
	t.resetLocked()
	return t
}

// resetLocked reinstates the Draft state. Any outstanding exchange token is
// orphaned, so its response will be discarded on arrival.
func (t *Transcript) resetLocked() {
	t.state = StateDraft
	t.conversationID = 0
	t.messages = []model.Message{model.WelcomeMessage()}
	t.nextLocalID = -1
	t.inflight = uuid.Nil
}

// State returns the lifecycle state.
func (t *Transcript) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ConversationID returns the bound conversation id, or nil in Draft state.
func (t *Transcript) ConversationID() *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePersisted {
		return nil
	}
	id := t.conversationID
	return &id
}

// Messages returns a copy of the message sequence in display order.
func (t *Transcript) Messages() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// SendInFlight reports whether an exchange is outstanding.
func (t *Transcript) SendInFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight != uuid.Nil
}

// BeginSend validates the prompt, appends the provisional user message, and
// returns the exchange to run against the backend. Rejected locally, with
// no transcript change, when the prompt is empty or a send is already in
// flight.
func (t *Transcript) BeginSend(prompt string) (Exchange, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Exchange{}, ErrEmptyPrompt
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inflight != uuid.Nil {
		return Exchange{}, ErrSendInFlight
	}

	localID := t.nextLocalID
	t.nextLocalID--
	t.messages = append(t.messages, model.NewUserMessage(localID, prompt))
	t.inflight = uuid.New()

	ex := Exchange{
		Token:   t.inflight,
		LocalID: localID,
		Prompt:  prompt,
	}
	if t.state == StatePersisted {
		id := t.conversationID
		ex.ConversationID = &id
	}
	return ex, nil
}

// ApplyResponse reconciles a successful exchange: the provisional user
// message is confirmed and the bot reply appended. Returns false when the
// exchange is stale (the transcript moved on) and nothing was applied.
func (t *Transcript) ApplyResponse(ex Exchange, resp *api.ChatResponse) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.settleLocked(ex) {
		return Result{}, false
	}

	t.markDeliveryLocked(ex.LocalID, model.DeliveryConfirmed)

	botID := t.nextLocalID
	t.nextLocalID--
	if resp.MessageID != nil {
		botID = *resp.MessageID
	}
	t.messages = append(t.messages, model.NewBotMessage(botID, resp.Response))

	var result Result
	if t.state == StateDraft && resp.ConversationID != nil {
		t.state = StatePersisted
		t.conversationID = *resp.ConversationID
		result.NewConversation = true
	}
	if t.state == StatePersisted {
		result.Bound = true
		result.ConversationID = t.conversationID
	}
	return result, true
}

// ApplyAuthFailure settles an exchange that hit session expiry: the user
// message is kept as undelivered and no bot message is appended, so the
// prompt stays visible for a resend after re-login. Returns false when the
// exchange is stale.
func (t *Transcript) ApplyAuthFailure(ex Exchange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.settleLocked(ex) {
		return false
	}
	t.markDeliveryLocked(ex.LocalID, model.DeliveryFailed)
	return true
}

// ApplyFailure settles an exchange that failed for any other reason: the
// user message is kept (flagged failed) and a synthetic bot error message
// is appended beneath it. Returns false when the exchange is stale.
func (t *Transcript) ApplyFailure(ex Exchange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.settleLocked(ex) {
		return false
	}
	t.markDeliveryLocked(ex.LocalID, model.DeliveryFailed)

	botID := t.nextLocalID
	t.nextLocalID--
	t.messages = append(t.messages, model.NewBotMessage(botID, ErrorReplyText))
	return true
}

// settleLocked checks the exchange against the outstanding token and, when
// it matches, clears the in-flight marker. A mismatch means the transcript
// was reset or switched since the send started.
func (t *Transcript) settleLocked(ex Exchange) bool {
	if ex.Token == uuid.Nil || ex.Token != t.inflight {
		return false
	}
	t.inflight = uuid.Nil
	return true
}

// markDeliveryLocked updates the delivery state of the message with the
// given id, if it is still present.
func (t *Transcript) markDeliveryLocked(id int64, delivery model.Delivery) {
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages[i].Delivery = delivery
			return
		}
	}
}

// NewConversation resets to Draft with only the welcome message. Any
// outstanding exchange becomes stale.
func (t *Transcript) NewConversation() {
	t.mu.Lock()
	t.resetLocked()
	t.mu.Unlock()
}

// LoadFor replaces the transcript with the backend's authoritative message
// sequence for a conversation and enters Persisted state. Role "USER" maps
// to the user; any other role renders as the bot. Any outstanding exchange
// becomes stale.
func (t *Transcript) LoadFor(conversationID int64, dtos []api.ChatMessageDTO) {
	messages := make([]model.Message, 0, len(dtos))
	for _, dto := range dtos {
		sender := model.SenderBot
		if dto.Role == "USER" {
			sender = model.SenderUser
		}
		messages = append(messages, model.Message{
			ID:        dto.ID,
			Text:      dto.Content,
			Sender:    sender,
			Timestamp: dto.CreatedAt.Time,
			Delivery:  model.DeliveryConfirmed,
		})
	}

	t.mu.Lock()
	t.state = StatePersisted
	t.conversationID = conversationID
	t.messages = messages
	t.nextLocalID = -1
	t.inflight = uuid.Nil
	t.mu.Unlock()
}
