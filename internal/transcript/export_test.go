// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/morganforge/chatmc-tui/internal/api"
)

func TestExportMarkdown_SkipsWelcomeAndFailedMessages(t *testing.T) {
	tr := New()

	ex, err := tr.BeginSend("what is Go?")
	if err != nil {
		t.Fatalf("BeginSend: %v", err)
	}
	convID := int64(7)
	tr.ApplyResponse(ex, &api.ChatResponse{
		Response:       "A programming language.",
		ConversationID: &convID,
	})

	ex2, _ := tr.BeginSend("lost prompt")
	tr.ApplyAuthFailure(ex2)

	out := string(tr.ExportMarkdown())

	if !strings.Contains(out, "Conversation ID: 7") {
		t.Errorf("missing conversation id header:\n%s", out)
	}
	if !strings.Contains(out, "what is Go?") {
		t.Errorf("missing user prompt:\n%s", out)
	}
	if !strings.Contains(out, "A programming language.") {
		t.Errorf("missing bot reply:\n%s", out)
	}
	if strings.Contains(out, "lost prompt") {
		t.Errorf("undelivered prompt must not be exported:\n%s", out)
	}
	if strings.Contains(out, "How can I help you today?") {
		t.Errorf("welcome message must not be exported:\n%s", out)
	}
}

func TestExportMarkdown_DraftOmitsConversationID(t *testing.T) {
	tr := New()
	out := string(tr.ExportMarkdown())
	if strings.Contains(out, "Conversation ID:") {
		t.Errorf("draft export must not carry a conversation id:\n%s", out)
	}
}

func TestExportFilename(t *testing.T) {
	tr := New()
	now := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)

	if got := tr.ExportFilename(now); got != "draft-20250301-123045.md" {
		t.Errorf("draft filename = %q", got)
	}

	ex, _ := tr.BeginSend("hello")
	convID := int64(12)
	tr.ApplyResponse(ex, &api.ChatResponse{Response: "hi", ConversationID: &convID})

	if got := tr.ExportFilename(now); got != "conversation-12-20250301-123045.md" {
		t.Errorf("persisted filename = %q", got)
	}
}
