// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/auth"
	"github.com/morganforge/chatmc-tui/internal/directory"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/model"
	"github.com/morganforge/chatmc-tui/internal/statestore"
	"github.com/morganforge/chatmc-tui/internal/transcript"
)

// fakeBackend is a configurable ChatBot MC backend.
type fakeBackend struct {
	chatStatus   int
	chatReply    string
	listJSON     string
	requestCount int64
}

func (f *fakeBackend) requests() int64 {
	return atomic.LoadInt64(&f.requestCount)
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.requestCount, 1)
		w.Header().Set("Content-Type", "application/json")
		var req api.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"tok-live","username":"` + req.Username + `","email":"","role":"USER"}`))
	})
	mux.HandleFunc("/api/llm/chat", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.requestCount, 1)
		if f.chatStatus != 0 {
			w.WriteHeader(f.chatStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.chatReply))
	})
	mux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.requestCount, 1)
		w.Header().Set("Content-Type", "application/json")
		list := f.listJSON
		if list == "" {
			list = `[]`
		}
		w.Write([]byte(list))
	})
	mux.HandleFunc("/api/conversations/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.requestCount, 1)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPatch:
			w.Header().Set("Content-Type", "application/json")
			var req api.RenameRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.Write([]byte(`{"id":7,"title":"` + req.Title + `","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-03T08:00:00","messageCount":2}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":1,"content":"hi","role":"USER","createdAt":"2025-06-01T09:00:00"}]`))
		}
	})
	return mux
}

func setup(t *testing.T, backend *fakeBackend) *Coordinator {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store, err := statestore.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := api.NewClient(server.URL)
	session := auth.NewSession(client, store, logging.Nop())
	client.WithTokenSource(session.Token)

	return New(client, session,
		directory.New(client, logging.Nop()),
		transcript.New(),
		logging.Nop())
}

func login(t *testing.T, c *Coordinator) {
	t.Helper()
	require.NoError(t, c.Login(context.Background(), "alice", "secret"))
	drainEvents(c)
}

func drainEvents(c *Coordinator) []Event {
	var out []Event
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func findNotice(events []Event, text string) bool {
	for _, ev := range events {
		if ev.Kind == EventNotice && ev.Text == text {
			return true
		}
	}
	return false
}

func hasKind(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// =============================================================================
// AUTH GATING
// =============================================================================

func TestSend_UnauthenticatedPerformsNoNetworkCall(t *testing.T) {
	backend := &fakeBackend{}
	c := setup(t, backend)

	err := c.Send(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Equal(t, int64(0), backend.requests())
	assert.True(t, hasKind(drainEvents(c), EventLoginRequired))

	// The transcript stays untouched: no optimistic message without a
	// session.
	assert.Len(t, c.Transcript().Messages(), 1)
}

func TestLogin_RefreshesDirectoryAndWelcomes(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":7,"title":"plans","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	c := setup(t, backend)

	require.NoError(t, c.Login(context.Background(), "alice", "secret"))

	assert.True(t, c.Session().IsAuthenticated())
	assert.Equal(t, 1, c.Directory().Len())
	assert.Equal(t, transcript.StateDraft, c.Transcript().State())
	assert.True(t, findNotice(drainEvents(c), "Welcome back, alice!"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":7,"title":"plans","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	c := setup(t, backend)
	login(t, c)

	c.Logout(context.Background())

	assert.False(t, c.Session().IsAuthenticated())
	assert.Equal(t, 0, c.Directory().Len())
	assert.Equal(t, transcript.StateDraft, c.Transcript().State())
	events := drainEvents(c)
	assert.True(t, findNotice(events, "Logged out successfully"))
	assert.True(t, hasKind(events, EventLoginRequired))
}

// =============================================================================
// SEND FLOW
// =============================================================================

func TestSend_DraftCreatesConversation(t *testing.T) {
	backend := &fakeBackend{
		chatReply: `{"response":"hello","messageId":9,"conversationId":42}`,
		listJSON: `[
			{"id":42,"title":"hi","createdAt":"2025-06-03T08:00:00","updatedAt":"2025-06-03T08:00:00","messageCount":2}
		]`,
	}
	c := setup(t, backend)
	login(t, c)

	require.NoError(t, c.Send(context.Background(), "hi"))

	// Transcript is Persisted and bound to the backend-assigned id.
	assert.Equal(t, transcript.StatePersisted, c.Transcript().State())
	id := c.Transcript().ConversationID()
	require.NotNil(t, id)
	assert.Equal(t, int64(42), *id)

	// The directory contains the new conversation.
	summaries := c.Directory().Summaries()
	require.NotEmpty(t, summaries)
	assert.Equal(t, int64(42), summaries[0].ID)

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[2].Text)
}

func TestSend_DraftReplyWithoutConversationIDAddsNoSummary(t *testing.T) {
	backend := &fakeBackend{chatReply: `{"response":"hello"}`}
	c := setup(t, backend)
	login(t, c)

	require.NoError(t, c.Send(context.Background(), "hi"))

	// The backend never bound a conversation, so the transcript stays
	// Draft and nothing may appear in the sidebar.
	assert.Equal(t, transcript.StateDraft, c.Transcript().State())
	assert.Equal(t, 0, c.Directory().Len())
	assert.False(t, hasKind(drainEvents(c), EventDirectoryChanged))

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[2].Text)
}

func TestSend_AuthFailureForcesLogoutKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{chatStatus: http.StatusUnauthorized}
	c := setup(t, backend)
	login(t, c)

	err := c.Send(context.Background(), "hi")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	// Credential cleared, never retried.
	assert.False(t, c.Session().IsAuthenticated())
	assert.Equal(t, 0, c.Directory().Len())

	// The prompt stays visible as undelivered; no bot message appears.
	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	assert.Equal(t, model.DeliveryFailed, msgs[1].Delivery)

	events := drainEvents(c)
	assert.True(t, findNotice(events, "Session expired. Please login again."))
	assert.True(t, hasKind(events, EventLoginRequired))
}

func TestSend_NetworkFailureAppendsErrorReply(t *testing.T) {
	backend := &fakeBackend{chatStatus: http.StatusBadGateway}
	c := setup(t, backend)
	login(t, c)

	err := c.Send(context.Background(), "hi")
	require.Error(t, err)

	// Still authenticated: only 401/403 expire the session.
	assert.True(t, c.Session().IsAuthenticated())

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, transcript.ErrorReplyText, msgs[2].Text)
	assert.Equal(t, model.SenderBot, msgs[2].Sender)
}

func TestSend_EmptyPromptRejectedLocally(t *testing.T) {
	backend := &fakeBackend{}
	c := setup(t, backend)
	login(t, c)
	before := backend.requests()

	err := c.Send(context.Background(), "   ")
	require.ErrorIs(t, err, transcript.ErrEmptyPrompt)
	assert.Equal(t, before, backend.requests())
}

// =============================================================================
// DIRECTORY FLOW
// =============================================================================

func TestRename_EmptyTitleRejectedLocally(t *testing.T) {
	backend := &fakeBackend{}
	c := setup(t, backend)
	login(t, c)
	before := backend.requests()

	err := c.Rename(context.Background(), 7, "  ")
	require.ErrorIs(t, err, directory.ErrEmptyTitle)
	assert.Equal(t, before, backend.requests())
}

func TestRename_EmitsNotice(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":7,"title":"old","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	c := setup(t, backend)
	login(t, c)

	require.NoError(t, c.Rename(context.Background(), 7, "new"))
	assert.True(t, findNotice(drainEvents(c), "Conversation renamed"))
	assert.Equal(t, "new", c.Directory().Summaries()[0].Title)
}

func TestDelete_ActiveConversationResetsTranscript(t *testing.T) {
	backend := &fakeBackend{
		chatReply: `{"response":"hello","conversationId":42}`,
		listJSON: `[
			{"id":42,"title":"hi","createdAt":"2025-06-03T08:00:00","updatedAt":"2025-06-03T08:00:00","messageCount":2}
		]`,
	}
	c := setup(t, backend)
	login(t, c)
	require.NoError(t, c.Send(context.Background(), "hi"))

	require.NoError(t, c.Delete(context.Background(), 42))

	// Back to Draft with exactly the welcome message.
	assert.Equal(t, transcript.StateDraft, c.Transcript().State())
	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(model.WelcomeMessageID), msgs[0].ID)
	assert.True(t, findNotice(drainEvents(c), "Conversation deleted"))
}

func TestDelete_OtherConversationKeepsTranscript(t *testing.T) {
	backend := &fakeBackend{
		chatReply: `{"response":"hello","conversationId":42}`,
	}
	c := setup(t, backend)
	login(t, c)
	require.NoError(t, c.Send(context.Background(), "hi"))

	require.NoError(t, c.Delete(context.Background(), 7))

	assert.Equal(t, transcript.StatePersisted, c.Transcript().State())
	assert.Len(t, c.Transcript().Messages(), 3)
}

func TestOpenConversation_LoadsAuthoritativeMessages(t *testing.T) {
	backend := &fakeBackend{}
	c := setup(t, backend)
	login(t, c)

	require.NoError(t, c.OpenConversation(context.Background(), 1))

	assert.Equal(t, transcript.StatePersisted, c.Transcript().State())
	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
}

func TestDirectory_NoDuplicateIDsAcrossOperations(t *testing.T) {
	backend := &fakeBackend{
		chatReply: `{"response":"hello","conversationId":42}`,
		listJSON: `[
			{"id":42,"title":"hi","createdAt":"2025-06-03T08:00:00","updatedAt":"2025-06-03T08:00:00","messageCount":2},
			{"id":7,"title":"other","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":4}
		]`,
	}
	c := setup(t, backend)
	login(t, c)

	// A send that creates id 42, followed by a refresh that also lists
	// id 42, must not produce duplicates.
	require.NoError(t, c.Send(context.Background(), "hi"))
	require.NoError(t, c.RefreshDirectory(context.Background()))

	seen := map[int64]bool{}
	for _, s := range c.Directory().Summaries() {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
	}
}
