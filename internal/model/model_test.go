// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage()

	if msg.ID != WelcomeMessageID {
		t.Errorf("WelcomeMessage().ID = %d, want %d", msg.ID, WelcomeMessageID)
	}
	if msg.Sender != SenderBot {
		t.Errorf("WelcomeMessage().Sender = %q, want %q", msg.Sender, SenderBot)
	}
	if msg.Text != WelcomeText {
		t.Errorf("WelcomeMessage().Text = %q, want %q", msg.Text, WelcomeText)
	}
}

func TestMessage_IsProvisional(t *testing.T) {
	if !NewUserMessage(-1, "hi").IsProvisional() {
		t.Error("message with negative id should be provisional")
	}
	if NewBotMessage(42, "hello").IsProvisional() {
		t.Error("message with backend id should not be provisional")
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"long text truncated", "hello world out there", 10, "hello w..."},
		{"unicode safe", "héllo wörld exträ länge", 10, "héllo w..."},
		{"tiny limit", "hello", 2, "he"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Message{Text: tc.text}.Preview(tc.maxLen)
			if got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestSender_DisplayName(t *testing.T) {
	if SenderUser.DisplayName() != "You" {
		t.Errorf("SenderUser.DisplayName() = %q", SenderUser.DisplayName())
	}
	if SenderBot.DisplayName() != "ChatBot" {
		t.Errorf("SenderBot.DisplayName() = %q", SenderBot.DisplayName())
	}
}

// =============================================================================
// SUMMARY ORDERING TESTS
// =============================================================================

func TestSortSummaries_MostRecentFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summaries := []ConversationSummary{
		{ID: 1, UpdatedAt: base},
		{ID: 2, UpdatedAt: base.Add(2 * time.Hour)},
		{ID: 3, UpdatedAt: base.Add(time.Hour)},
	}

	SortSummaries(summaries)

	wantOrder := []int64{2, 3, 1}
	for i, want := range wantOrder {
		if summaries[i].ID != want {
			t.Errorf("position %d: got id %d, want %d", i, summaries[i].ID, want)
		}
	}
}

func TestSortSummaries_StableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summaries := []ConversationSummary{
		{ID: 7, UpdatedAt: ts},
		{ID: 8, UpdatedAt: ts},
		{ID: 9, UpdatedAt: ts},
	}

	SortSummaries(summaries)

	// Equal timestamps must preserve arrival order.
	wantOrder := []int64{7, 8, 9}
	for i, want := range wantOrder {
		if summaries[i].ID != want {
			t.Errorf("position %d: got id %d, want %d", i, summaries[i].ID, want)
		}
	}
}

func TestConversationSummary_DisplayTitle(t *testing.T) {
	if got := (ConversationSummary{Title: "plans"}).DisplayTitle(); got != "plans" {
		t.Errorf("DisplayTitle() = %q, want %q", got, "plans")
	}
	if got := (ConversationSummary{}).DisplayTitle(); got != "New Conversation" {
		t.Errorf("DisplayTitle() on untitled = %q, want %q", got, "New Conversation")
	}
}
