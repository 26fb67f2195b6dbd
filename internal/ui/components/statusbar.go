// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/morganforge/chatmc-tui/internal/ui/styles"
)

// StatusBar renders the single-line footer: identity on the left, the most
// recent notice on the right.
type StatusBar struct {
	theme    *styles.Theme
	width    int
	username string
	notice   string
	isError  bool
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetUsername sets the identity shown on the left; empty means logged out.
func (s *StatusBar) SetUsername(username string) {
	s.username = username
}

// SetNotice replaces the transient notice text.
func (s *StatusBar) SetNotice(text string, isError bool) {
	s.notice = text
	s.isError = isError
}

// ClearNotice removes the notice.
func (s *StatusBar) ClearNotice() {
	s.notice = ""
	s.isError = false
}

// View renders the bar.
func (s *StatusBar) View() string {
	left := "not logged in"
	if s.username != "" {
		left = s.theme.StatusUser.Render(s.username)
	}

	right := ""
	if s.notice != "" {
		style := s.theme.StatusNotice
		if s.isError {
			style = s.theme.StatusError
		}
		right = style.Render(runewidth.Truncate(s.notice, s.width/2, "…"))
	}

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}
