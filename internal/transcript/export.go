// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/chatmc-tui/internal/model"
)

// ExportMarkdown renders the transcript as a markdown document suitable for
// saving to disk. The welcome message and undelivered prompts are skipped;
// only the exchanged conversation is exported.
func (t *Transcript) ExportMarkdown() []byte {
	t.mu.Lock()
	state := t.state
	conversationID := t.conversationID
	messages := make([]model.Message, len(t.messages))
	copy(messages, t.messages)
	t.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Conversation\n\n")
	if state == StatePersisted {
		fmt.Fprintf(&b, "Conversation ID: %d\n", conversationID)
	}
	fmt.Fprintf(&b, "Exported: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	for _, msg := range messages {
		if msg.ID == model.WelcomeMessageID {
			continue
		}
		if msg.Delivery == model.DeliveryFailed {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", msg.Sender.DisplayName())
		b.WriteString(msg.Text)
		b.WriteString("\n\n")
	}
	return []byte(b.String())
}

// ExportFilename returns a timestamped filename for an export, namespaced by
// conversation id ("draft" while unbound).
func (t *Transcript) ExportFilename(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	scope := "draft"
	if t.state == StatePersisted {
		scope = fmt.Sprintf("conversation-%d", t.conversationID)
	}
	return fmt.Sprintf("%s-%s.md", scope, now.UTC().Format("20060102-150405"))
}
