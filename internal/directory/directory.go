// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory maintains the ordered collection of conversation
// summaries shown in the sidebar.
//
// The backend list is authoritative: Refresh replaces the whole collection
// atomically. Local mutations (rename, delete, exchange upsert) keep the
// collection consistent between refreshes. Display order is most recently
// updated first, stable for equal timestamps, and ids are unique at all
// times.
package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/model"
)

// ErrEmptyTitle indicates a rename to an empty (or whitespace-only) title.
// Raised locally, before any network call.
var ErrEmptyTitle = errors.New("title must not be empty")

// Directory is the client-side view of the conversation list. Safe for
// concurrent use.
type Directory struct {
	mu        sync.Mutex
	client    *api.Client
	log       logging.Logger
	summaries []model.ConversationSummary
}

// New creates an empty directory backed by the given API client.
func New(client *api.Client, log logging.Logger) *Directory {
	if log == nil {
		log = logging.Nop()
	}
	return &Directory{client: client, log: log}
}

// Refresh fetches the conversation list and atomically replaces the local
// collection. On failure the previous collection is kept untouched.
func (d *Directory) Refresh(ctx context.Context) error {
	dtos, err := d.client.Conversations(ctx)
	if err != nil {
		return err
	}

	// Backend ids are unique, but dedupe defensively: a duplicate in the
	// sidebar is worse than dropping a row.
	seen := make(map[int64]bool, len(dtos))
	summaries := make([]model.ConversationSummary, 0, len(dtos))
	for _, dto := range dtos {
		if seen[dto.ID] {
			d.log.Warnf("dropping duplicate conversation id %d from backend list", dto.ID)
			continue
		}
		seen[dto.ID] = true
		summaries = append(summaries, model.ConversationSummary{
			ID:           dto.ID,
			Title:        dto.Title,
			CreatedAt:    dto.CreatedAt.Time,
			UpdatedAt:    dto.UpdatedAt.Time,
			MessageCount: dto.MessageCount,
		})
	}
	model.SortSummaries(summaries)

	d.mu.Lock()
	d.summaries = summaries
	d.mu.Unlock()
	d.log.Debugf("directory refreshed: %d conversations", len(summaries))
	return nil
}

// Summaries returns the current collection in display order. The returned
// slice is a copy; callers may not mutate directory state through it.
func (d *Directory) Summaries() []model.ConversationSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.ConversationSummary, len(d.summaries))
	copy(out, d.summaries)
	return out
}

// Len returns the number of conversations.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.summaries)
}

// Rename validates and submits a title change, then applies the backend's
// reply locally. The local entry is only touched after the backend
// confirms.
func (d *Directory) Rename(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	updated, err := d.client.RenameConversation(ctx, id, title)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.summaries {
		if d.summaries[i].ID == id {
			d.summaries[i].Title = updated.Title
			if !updated.UpdatedAt.IsZero() {
				d.summaries[i].UpdatedAt = updated.UpdatedAt.Time
			}
			break
		}
	}
	model.SortSummaries(d.summaries)
	return nil
}

// Delete removes a conversation remotely, then locally. The local entry
// survives if the backend call fails.
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.client.DeleteConversation(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.summaries {
		if d.summaries[i].ID == id {
			d.summaries = append(d.summaries[:i], d.summaries[i+1:]...)
			break
		}
	}
	return nil
}

// UpsertFromExchange reflects a completed chat exchange without a network
// round trip: an unknown id is inserted (the backend just created the
// conversation), a known id gets its activity bumped. Title is only used
// for newly inserted entries; the authoritative title arrives with the
// next Refresh.
func (d *Directory) UpsertFromExchange(id int64, title string) {
	now := time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.summaries {
		if d.summaries[i].ID == id {
			d.summaries[i].UpdatedAt = now
			// One exchange persists the prompt and the reply.
			d.summaries[i].MessageCount += 2
			model.SortSummaries(d.summaries)
			return
		}
	}
	d.summaries = append(d.summaries, model.ConversationSummary{
		ID:           id,
		Title:        title,
		CreatedAt:    now,
		UpdatedAt:    now,
		MessageCount: 2,
	})
	model.SortSummaries(d.summaries)
}

// Clear drops the whole collection. Used on logout and session expiry.
func (d *Directory) Clear() {
	d.mu.Lock()
	d.summaries = nil
	d.mu.Unlock()
}
