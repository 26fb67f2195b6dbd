// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/chatmc-tui/internal/model"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	if !m.authenticated() {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.authForm.View())
	}

	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.inputView(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), chat)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusbar.View())
}

// inputView renders the prompt box, with the spinner while a send is in
// flight and the rename field while renaming.
func (m *Model) inputView() string {
	if m.focus == focusRename {
		return m.theme.InputContainer.Render("Rename: " + m.renameInput.View())
	}
	if m.coord.Transcript().SendInFlight() {
		return m.theme.InputContainer.Render(m.spinner.View() + " waiting for reply...")
	}
	return m.theme.InputContainer.Render(m.prompt.View())
}

// renderTranscript renders the message sequence for the viewport.
func (m *Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.coord.Transcript().Messages() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders one message with its sender label and delivery
// marker. Bot messages go through the markdown renderer when available.
func (m *Model) renderMessage(msg model.Message) string {
	if m.compact {
		return m.renderCompactMessage(msg)
	}

	var b strings.Builder

	switch msg.Sender {
	case model.SenderUser:
		b.WriteString(m.theme.UserLabel.Render(msg.Sender.DisplayName()))
		switch msg.Delivery {
		case model.DeliveryPending:
			b.WriteString(m.theme.PendingMark.Render(" ◌ sending"))
		case model.DeliveryFailed:
			b.WriteString(m.theme.FailedMark.Render(" ✗ not delivered"))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.UserBubble.Render(msg.Text))
	default:
		b.WriteString(m.theme.BotLabel.Render(msg.Sender.DisplayName()))
		b.WriteString("\n")
		text := msg.Text
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(text); err == nil {
				text = strings.TrimRight(rendered, "\n")
			}
		}
		b.WriteString(m.theme.BotBubble.Render(text))
	}
	b.WriteString("\n")
	return b.String()
}

// renderCompactMessage renders one "Sender: text" line. Compact mode skips
// markdown rendering and bubble padding; the transcript reads like a log.
func (m *Model) renderCompactMessage(msg model.Message) string {
	label := m.theme.BotLabel
	if msg.Sender == model.SenderUser {
		label = m.theme.UserLabel
	}
	line := label.Render(msg.Sender.DisplayName()+":") + " " + msg.Text
	if msg.Sender == model.SenderUser {
		switch msg.Delivery {
		case model.DeliveryPending:
			line += m.theme.PendingMark.Render(" ◌")
		case model.DeliveryFailed:
			line += m.theme.FailedMark.Render(" ✗")
		}
	}
	return line
}
