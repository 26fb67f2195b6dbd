// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coordinator orchestrates the session, directory, and transcript.
//
// Every directory, transcript, and exchange operation is gated behind an
// authenticated session. Session expiry detected on any authenticated call
// (401/403) forces a logout, surfaces "session expired", and asks for a
// re-login; the failed operation is never retried automatically.
//
// User-facing outcomes (snackbar notices, login prompts) are emitted on an
// event channel decoupled from rendering.
package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/auth"
	"github.com/morganforge/chatmc-tui/internal/directory"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/transcript"
)

// User-facing notice texts.
const (
	noticeWelcome       = "Welcome back, %s!"
	noticeLoggedOut     = "Logged out successfully"
	noticeDeleted       = "Conversation deleted"
	noticeRenamed       = "Conversation renamed"
	noticeLoginRequired = "Please login to use the chatbot"
	noticeExpired       = "Session expired. Please login again."
	noticePending       = "Registration successful, %s! Your account is pending admin approval."
)

// ErrNotAuthenticated indicates an operation was attempted without a
// session. The operation performs no network call; the caller is shown the
// login flow instead.
var ErrNotAuthenticated = errors.New("not authenticated")

// EventKind classifies coordinator events.
type EventKind int

const (
	// EventNotice is a transient user-facing message.
	EventNotice EventKind = iota
	// EventLoginRequired asks the UI to present the login flow.
	EventLoginRequired
	// EventDirectoryChanged signals that the sidebar should re-read the
	// directory.
	EventDirectoryChanged
)

// Event is one user-facing outcome emitted by the coordinator.
type Event struct {
	Kind EventKind
	Text string
}

// Coordinator wires the session, directory, and transcript together.
type Coordinator struct {
	client     *api.Client
	session    *auth.Session
	dir        *directory.Directory
	transcript *transcript.Transcript
	log        logging.Logger
	events     chan Event
}

// New creates a coordinator over the given components.
func New(client *api.Client, session *auth.Session, dir *directory.Directory, tr *transcript.Transcript, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.Nop()
	}
	return &Coordinator{
		client:     client,
		session:    session,
		dir:        dir,
		transcript: tr,
		log:        log,
		// Buffered so core logic never blocks on a slow renderer.
		events: make(chan Event, 32),
	}
}

// Events returns the channel of user-facing outcomes.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Session returns the auth session.
func (c *Coordinator) Session() *auth.Session { return c.session }

// Directory returns the conversation directory.
func (c *Coordinator) Directory() *directory.Directory { return c.dir }

// Transcript returns the active transcript.
func (c *Coordinator) Transcript() *transcript.Transcript { return c.transcript }

// emit delivers an event without ever blocking; if the channel is full the
// event is dropped (notices are transient by definition).
func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warnf("event channel full, dropping %q", ev.Text)
	}
}

// =============================================================================
// AUTH FLOW
// =============================================================================

// Login authenticates, repopulates the directory for the new identity, and
// resets the transcript to a fresh Draft.
func (c *Coordinator) Login(ctx context.Context, username, password string) error {
	cred, err := c.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.transcript.NewConversation()
	if err := c.dir.Refresh(ctx); err != nil {
		// The session is valid; the sidebar just starts empty until the
		// next refresh succeeds.
		c.log.Warnf("directory refresh after login failed: %v", err)
	}
	c.emit(Event{Kind: EventDirectoryChanged})
	c.emit(Event{Kind: EventNotice, Text: fmt.Sprintf(noticeWelcome, cred.Username)})
	return nil
}

// Register creates an account. Registration never authenticates; when the
// account awaits approval a pending notice is emitted.
func (c *Coordinator) Register(ctx context.Context, username, email, password string) error {
	created, err := c.session.Register(ctx, username, email, password)
	if errors.Is(err, auth.ErrPendingApproval) {
		c.emit(Event{Kind: EventNotice, Text: fmt.Sprintf(noticePending, created)})
		return nil
	}
	if err != nil {
		return err
	}
	c.emit(Event{Kind: EventNotice, Text: fmt.Sprintf(noticePending, created)})
	return nil
}

// Logout drops the session and resets all local state.
func (c *Coordinator) Logout(ctx context.Context) {
	c.session.Logout(ctx)
	c.dir.Clear()
	c.transcript.NewConversation()
	c.emit(Event{Kind: EventDirectoryChanged})
	c.emit(Event{Kind: EventNotice, Text: noticeLoggedOut})
	c.emit(Event{Kind: EventLoginRequired, Text: noticeLoginRequired})
}

// expireSession handles a 401/403 on an authenticated call: forced logout,
// "session expired" notice, login prompt. The transcript is left alone so
// an undelivered prompt stays visible for a resend after re-login.
func (c *Coordinator) expireSession(ctx context.Context) {
	c.log.Infof("session expired, forcing logout")
	c.session.Logout(ctx)
	c.dir.Clear()
	c.emit(Event{Kind: EventDirectoryChanged})
	c.emit(Event{Kind: EventNotice, Text: noticeExpired})
	c.emit(Event{Kind: EventLoginRequired, Text: noticeExpired})
}

// requireAuth gates an operation behind the session. Unauthenticated
// attempts perform no network call and prompt for login.
func (c *Coordinator) requireAuth() error {
	if c.session.IsAuthenticated() {
		return nil
	}
	c.emit(Event{Kind: EventLoginRequired, Text: noticeLoginRequired})
	return ErrNotAuthenticated
}

// =============================================================================
// SEND FLOW
// =============================================================================

// Send runs one optimistic exchange: validate, append the provisional user
// message, call the backend, and settle the transcript with the outcome.
// Local validation errors (transcript.ErrEmptyPrompt, ErrSendInFlight) are
// returned without any transcript or network activity.
func (c *Coordinator) Send(ctx context.Context, prompt string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	ex, err := c.transcript.BeginSend(prompt)
	if err != nil {
		return err
	}

	resp, err := c.client.Chat(ctx, ex.Prompt, ex.ConversationID)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		c.transcript.ApplyAuthFailure(ex)
		c.expireSession(ctx)
		return err
	case err != nil:
		c.log.Warnf("exchange failed: %v", err)
		c.transcript.ApplyFailure(ex)
		return err
	}

	result, applied := c.transcript.ApplyResponse(ex, resp)
	if !applied {
		// The user switched away while the send was outstanding; the
		// response belongs to nothing visible anymore.
		c.log.Debugf("discarded stale exchange response")
		return nil
	}

	if result.Bound {
		c.dir.UpsertFromExchange(result.ConversationID, ex.Prompt)
		if result.NewConversation {
			// Pick up the backend's authoritative title for the new
			// conversation.
			if err := c.dir.Refresh(ctx); err != nil {
				c.log.Warnf("directory refresh after new conversation failed: %v", err)
			}
		}
		c.emit(Event{Kind: EventDirectoryChanged})
	}
	return nil
}

// =============================================================================
// DIRECTORY FLOW
// =============================================================================

// RefreshDirectory re-fetches the conversation list.
func (c *Coordinator) RefreshDirectory(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	err := c.dir.Refresh(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		c.expireSession(ctx)
		return err
	}
	if err == nil {
		c.emit(Event{Kind: EventDirectoryChanged})
	}
	return err
}

// OpenConversation loads a conversation's authoritative message sequence
// into the transcript.
func (c *Coordinator) OpenConversation(ctx context.Context, id int64) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	msgs, err := c.client.Messages(ctx, id)
	if errors.Is(err, api.ErrUnauthorized) {
		c.expireSession(ctx)
		return err
	}
	if err != nil {
		return err
	}
	c.transcript.LoadFor(id, msgs)
	return nil
}

// NewConversation resets the transcript to a fresh Draft.
func (c *Coordinator) NewConversation() {
	c.transcript.NewConversation()
}

// Rename changes a conversation title. The empty-title case is rejected by
// the directory before any network call.
func (c *Coordinator) Rename(ctx context.Context, id int64, title string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	err := c.dir.Rename(ctx, id, title)
	if errors.Is(err, api.ErrUnauthorized) {
		c.expireSession(ctx)
		return err
	}
	if err != nil {
		return err
	}
	c.emit(Event{Kind: EventDirectoryChanged})
	c.emit(Event{Kind: EventNotice, Text: noticeRenamed})
	return nil
}

// Delete removes a conversation. When the deleted conversation is the one
// on screen, the transcript resets to Draft: the directory does not know
// which conversation is current, so the check lives here.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	err := c.dir.Delete(ctx, id)
	if errors.Is(err, api.ErrUnauthorized) {
		c.expireSession(ctx)
		return err
	}
	if err != nil {
		return err
	}

	if active := c.transcript.ConversationID(); active != nil && *active == id {
		c.transcript.NewConversation()
	}
	c.emit(Event{Kind: EventDirectoryChanged})
	c.emit(Event{Kind: EventNotice, Text: noticeDeleted})
	return nil
}
