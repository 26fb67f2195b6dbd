// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"time"
)

// =============================================================================
// CONVERSATION SUMMARY
// =============================================================================

// ConversationSummary is the lightweight sidebar entry for one conversation.
// The id is issued by the backend and immutable; title, updatedAt and
// messageCount are refreshed by directory operations.
type ConversationSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

// DisplayTitle returns the title or a default for untitled conversations.
func (s ConversationSummary) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "New Conversation"
}

// SortSummaries orders summaries most-recently-updated first.
// The sort is stable: summaries with equal timestamps keep their
// arrival order, since the backend does not define a tie-break.
func SortSummaries(summaries []ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}
