// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the chatmc TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/morganforge/chatmc-tui/internal/model"
	"github.com/morganforge/chatmc-tui/internal/ui/styles"
)

// Sidebar renders the conversation list, most recently updated first.
type Sidebar struct {
	theme    *styles.Theme
	width    int
	height   int
	items    []model.ConversationSummary
	cursor   int
	activeID int64
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, activeID: -1}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetItems replaces the conversation list, keeping the cursor in range.
func (s *Sidebar) SetItems(items []model.ConversationSummary) {
	s.items = items
	if s.cursor >= len(items) {
		s.cursor = len(items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// SetActive marks the conversation currently on screen; pass a negative id
// for a draft.
func (s *Sidebar) SetActive(id int64) {
	s.activeID = id
}

// CursorUp moves the selection up.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the selection down.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.items)-1 {
		s.cursor++
	}
}

// Selected returns the summary under the cursor, or false when the list is
// empty.
func (s *Sidebar) Selected() (model.ConversationSummary, bool) {
	if len(s.items) == 0 {
		return model.ConversationSummary{}, false
	}
	return s.items[s.cursor], true
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")

	if len(s.items) == 0 {
		b.WriteString(s.theme.SidebarMeta.Render("no conversations yet"))
		return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
	}

	// Leave room for the title line.
	visible := s.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}

	textWidth := s.width - 4
	for i := start; i < len(s.items) && i < start+visible; i++ {
		item := s.items[i]
		title := runewidth.Truncate(item.DisplayTitle(), textWidth, "…")

		marker := "  "
		if item.ID == s.activeID {
			marker = "• "
		}
		line := marker + title

		switch {
		case i == s.cursor:
			line = s.theme.SidebarSelected.Width(s.width - 2).Render(line)
		default:
			line = s.theme.SidebarItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		meta := fmt.Sprintf("  %d messages", item.MessageCount)
		b.WriteString(s.theme.SidebarMeta.Render(runewidth.Truncate(meta, textWidth, "…")))
		b.WriteString("\n")
	}

	return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
}
