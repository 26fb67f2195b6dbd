// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/logging"
)

// fakeBackend serves a mutable conversation list.
type fakeBackend struct {
	listJSON    string
	renameReply string
	deleteCode  int
	lastMethod  string
	lastPath    string
	lastBody    map[string]any
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastMethod = r.Method
		f.lastPath = r.URL.Path
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(f.listJSON))
		case r.Method == http.MethodPatch:
			w.Write([]byte(f.renameReply))
		case r.Method == http.MethodDelete:
			code := f.deleteCode
			if code == 0 {
				code = http.StatusNoContent
			}
			w.WriteHeader(code)
		}
	})
}

func setup(t *testing.T, backend *fakeBackend) *Directory {
	t.Helper()
	server := httptest.NewServer(backend.handler(t))
	t.Cleanup(server.Close)
	return New(api.NewClient(server.URL), logging.Nop())
}

func TestRefresh_SortsMostRecentFirst(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"older","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2},
		{"id":2,"title":"newer","createdAt":"2025-06-01T09:00:00","updatedAt":"2025-06-02T09:00:00","messageCount":4}
	]`}
	dir := setup(t, backend)

	require.NoError(t, dir.Refresh(context.Background()))

	summaries := dir.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(2), summaries[0].ID)
	assert.Equal(t, int64(1), summaries[1].ID)
}

func TestRefresh_DropsDuplicateIDs(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":7,"title":"first","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2},
		{"id":7,"title":"dup","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	dir := setup(t, backend)

	require.NoError(t, dir.Refresh(context.Background()))
	require.Equal(t, 1, dir.Len())
	assert.Equal(t, "first", dir.Summaries()[0].Title)
}

func TestRefresh_FailureKeepsPreviousCollection(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"kept","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	server := httptest.NewServer(backend.handler(t))
	dir := New(api.NewClient(server.URL), logging.Nop())

	require.NoError(t, dir.Refresh(context.Background()))
	server.Close()

	err := dir.Refresh(context.Background())
	require.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, 1, dir.Len())
	assert.Equal(t, "kept", dir.Summaries()[0].Title)
}

func TestSummaries_ReturnsCopy(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"original","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	summaries := dir.Summaries()
	summaries[0].Title = "mutated"

	assert.Equal(t, "original", dir.Summaries()[0].Title)
}

func TestRename_EmptyTitleRejectedLocally(t *testing.T) {
	backend := &fakeBackend{listJSON: `[]`}
	dir := setup(t, backend)

	err := dir.Rename(context.Background(), 1, "   ")
	require.ErrorIs(t, err, ErrEmptyTitle)
	// Local validation must fail before any request is made.
	assert.Equal(t, "", backend.lastMethod)
}

func TestRename_AppliesBackendReply(t *testing.T) {
	backend := &fakeBackend{
		listJSON: `[
			{"id":1,"title":"old","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2},
			{"id":2,"title":"top","createdAt":"2025-06-02T08:00:00","updatedAt":"2025-06-02T08:00:00","messageCount":2}
		]`,
		renameReply: `{"id":1,"title":"new name","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-03T08:00:00","messageCount":2}`,
	}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	require.NoError(t, dir.Rename(context.Background(), 1, "  new name  "))

	assert.Equal(t, http.MethodPatch, backend.lastMethod)
	assert.Equal(t, "/api/conversations/1", backend.lastPath)
	// The trimmed title goes over the wire.
	assert.Equal(t, "new name", backend.lastBody["title"])

	// The renamed conversation moves to the top because the backend
	// bumped updatedAt.
	summaries := dir.Summaries()
	assert.Equal(t, int64(1), summaries[0].ID)
	assert.Equal(t, "new name", summaries[0].Title)
}

func TestDelete_RemovesLocallyOnlyAfterBackendConfirms(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"a","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2},
		{"id":2,"title":"b","createdAt":"2025-06-02T08:00:00","updatedAt":"2025-06-02T08:00:00","messageCount":2}
	]`}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	require.NoError(t, dir.Delete(context.Background(), 1))
	require.Equal(t, 1, dir.Len())
	assert.Equal(t, int64(2), dir.Summaries()[0].ID)
}

func TestDelete_BackendFailureKeepsLocalEntry(t *testing.T) {
	backend := &fakeBackend{
		listJSON:   `[{"id":1,"title":"a","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}]`,
		deleteCode: http.StatusNotFound,
	}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	err := dir.Delete(context.Background(), 1)
	require.ErrorIs(t, err, api.ErrNotFound)
	assert.Equal(t, 1, dir.Len())
}

func TestUpsertFromExchange_InsertsNewConversationFirst(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"existing","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	dir.UpsertFromExchange(42, "hi there")

	summaries := dir.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(42), summaries[0].ID)
	assert.Equal(t, "hi there", summaries[0].Title)
	assert.Equal(t, 2, summaries[0].MessageCount)
}

func TestUpsertFromExchange_BumpsExistingConversation(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"quiet","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2},
		{"id":2,"title":"busy","createdAt":"2025-06-02T08:00:00","updatedAt":"2025-06-02T08:00:00","messageCount":4}
	]`}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	dir.UpsertFromExchange(1, "ignored for existing entries")

	summaries := dir.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1), summaries[0].ID)
	assert.Equal(t, "quiet", summaries[0].Title)
	assert.Equal(t, 4, summaries[0].MessageCount)
}

func TestUpsertFromExchange_NeverDuplicatesIDs(t *testing.T) {
	backend := &fakeBackend{listJSON: `[]`}
	dir := setup(t, backend)

	dir.UpsertFromExchange(5, "first")
	dir.UpsertFromExchange(5, "second")
	dir.UpsertFromExchange(5, "third")

	require.Equal(t, 1, dir.Len())
	assert.Equal(t, "first", dir.Summaries()[0].Title)
}

func TestClear(t *testing.T) {
	backend := &fakeBackend{listJSON: `[
		{"id":1,"title":"a","createdAt":"2025-06-01T08:00:00","updatedAt":"2025-06-01T08:00:00","messageCount":2}
	]`}
	dir := setup(t, backend)
	require.NoError(t, dir.Refresh(context.Background()))

	dir.Clear()
	assert.Equal(t, 0, dir.Len())
}
