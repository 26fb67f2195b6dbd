// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/coordinator"
	"github.com/morganforge/chatmc-tui/internal/directory"
	"github.com/morganforge/chatmc-tui/internal/transcript"
	"github.com/morganforge/chatmc-tui/internal/ui/components"
)

// noticeDuration is how long a status bar notice stays visible.
const noticeDuration = 4 * time.Second

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case coordinatorEventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, m.listenEvents())

	case loginResultMsg:
		if msg.Err != nil {
			m.authForm.SetError(loginErrorText(msg.Err))
			return m, nil
		}
		m.authForm.Reset()
		m.focus = focusPrompt
		m.prompt.Focus()
		m.syncSidebar()
		m.syncViewport()
		return m, nil

	case registerResultMsg:
		if msg.Err != nil {
			m.authForm.SetError(registerErrorText(msg.Err))
		}
		// The pending-approval notice arrives as a coordinator event.
		return m, nil

	case sendResultMsg:
		m.syncSidebar()
		m.syncViewport()
		if msg.Err != nil && errors.Is(msg.Err, transcript.ErrSendInFlight) {
			return m, m.setNotice("Still waiting for the previous reply", true)
		}
		return m, nil

	case openResultMsg:
		if msg.Err != nil {
			return m, m.setNotice("Could not load conversation", true)
		}
		m.focus = focusPrompt
		m.prompt.Focus()
		m.sidebar.SetActive(msg.ID)
		m.syncViewport()
		return m, nil

	case refreshResultMsg:
		if msg.Err == nil {
			m.syncSidebar()
		}
		return m, nil

	case renameResultMsg:
		m.syncSidebar()
		switch {
		case errors.Is(msg.Err, directory.ErrEmptyTitle):
			return m, m.setNotice("Title must not be empty", true)
		case errors.Is(msg.Err, api.ErrNotFound):
			return m, m.setNotice("Conversation no longer exists", true)
		}
		return m, nil

	case deleteResultMsg:
		m.syncSidebar()
		m.syncViewport()
		if msg.Err != nil && errors.Is(msg.Err, api.ErrNotFound) {
			return m, m.setNotice("Conversation no longer exists", true)
		}
		return m, nil

	case exportResultMsg:
		if msg.Err != nil {
			m.log.Warnf("export failed: %v", msg.Err)
			return m, m.setNotice("Export failed", true)
		}
		return m, m.setNotice("Exported to "+msg.Path, false)

	case noticeExpiredMsg:
		if msg.Seq == m.noticeSeq {
			m.statusbar.ClearNotice()
		}
		return m, nil

	case spinner.TickMsg:
		if m.coord.Transcript().SendInFlight() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// handleResize lays the panes out for the new terminal size.
func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)

	chatWidth := m.width - sidebarWidth - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	// Status bar + input box take the bottom rows.
	chatHeight := m.height - 4
	if chatHeight < 5 {
		chatHeight = 5
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = chatHeight
	}
	m.sidebar.SetSize(sidebarWidth, chatHeight)
	m.statusbar.SetWidth(m.width)
	m.prompt.Width = chatWidth - 4

	if m.markdown {
		style := "dark"
		if !m.theme.IsDark {
			style = "light"
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(chatWidth-2),
		)
		if err != nil {
			m.log.Warnf("markdown renderer unavailable: %v", err)
			m.renderer = nil
		} else {
			m.renderer = renderer
		}
	}

	m.syncViewport()
	return nil
}

// handleEvent reacts to a coordinator event.
func (m *Model) handleEvent(ev coordinator.Event) tea.Cmd {
	switch ev.Kind {
	case coordinator.EventNotice:
		return m.setNotice(ev.Text, false)
	case coordinator.EventLoginRequired:
		// The auth screen shows itself once the session is gone; make
		// sure stale form state is not kept around.
		m.authForm.Reset()
		m.statusbar.SetUsername("")
		m.syncSidebar()
		m.syncViewport()
		if ev.Text != "" {
			m.authForm.SetError(ev.Text)
		}
		return nil
	case coordinator.EventDirectoryChanged:
		m.syncSidebar()
		return nil
	}
	return nil
}

// handleKey routes key input by screen and focus.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if !m.authenticated() {
		submit, cmd := m.authForm.Update(msg)
		if submit == nil {
			return m, cmd
		}
		if submit.Mode == components.ModeRegister {
			return m, m.registerCmd(submit.Username, submit.Email, submit.Password)
		}
		return m, m.loginCmd(submit.Username, submit.Password)
	}

	switch m.focus {
	case focusRename:
		return m.handleRenameKey(msg)
	case focusSidebar:
		return m.handleSidebarKey(msg)
	default:
		return m.handlePromptKey(msg)
	}
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := m.prompt.Value()
		m.prompt.SetValue("")
		// BeginSend appends the optimistic message synchronously inside
		// Send; re-render happens when the result message arrives, and
		// immediately via syncViewport for the provisional entry.
		cmd := m.sendCmd(text)
		return m, tea.Batch(cmd, m.spinner.Tick, m.deferredSync())
	case key.Matches(msg, m.keys.Sidebar):
		m.focus = focusSidebar
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		m.coord.NewConversation()
		m.sidebar.SetActive(-1)
		m.syncViewport()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Logout):
		return m, func() tea.Msg {
			m.coord.Logout(m.ctx)
			return nil
		}
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Sidebar):
		m.focus = focusPrompt
		m.prompt.Focus()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.sidebar.CursorUp()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.sidebar.CursorDown()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if selected, ok := m.sidebar.Selected(); ok {
			return m, m.openCmd(selected.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		m.coord.NewConversation()
		m.sidebar.SetActive(-1)
		m.focus = focusPrompt
		m.prompt.Focus()
		m.syncViewport()
		return m, nil
	case key.Matches(msg, m.keys.Rename):
		if selected, ok := m.sidebar.Selected(); ok {
			m.focus = focusRename
			m.renameID = selected.ID
			m.renameInput.SetValue(selected.Title)
			m.renameInput.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if selected, ok := m.sidebar.Selected(); ok {
			return m, m.deleteCmd(selected.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.focus = focusSidebar
		m.renameInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		title := m.renameInput.Value()
		m.focus = focusSidebar
		m.renameInput.Blur()
		if title == "" {
			return m, m.setNotice("Title must not be empty", true)
		}
		return m, m.renameCmd(m.renameID, title)
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

// updateFocused forwards non-key messages to the focused input widgets.
func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if !m.authenticated() {
		_, cmd = m.authForm.Update(msg)
		return m, cmd
	}
	m.prompt, cmd = m.prompt.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// HELPERS
// =============================================================================

// deferredSync re-renders the transcript on the next tick so the optimistic
// user message shows before the backend answers.
func (m *Model) deferredSync() tea.Cmd {
	return tea.Tick(20*time.Millisecond, func(time.Time) tea.Msg {
		return refreshResultMsg{}
	})
}

// syncSidebar re-reads the directory and the active conversation.
func (m *Model) syncSidebar() {
	m.sidebar.SetItems(m.coord.Directory().Summaries())
	if id := m.coord.Transcript().ConversationID(); id != nil {
		m.sidebar.SetActive(*id)
	} else {
		m.sidebar.SetActive(-1)
	}
	cred := m.coord.Session().Credential()
	m.statusbar.SetUsername(cred.Username)
}

// syncViewport re-renders the transcript and follows the tail.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// setNotice shows a transient status bar notice.
func (m *Model) setNotice(text string, isError bool) tea.Cmd {
	m.statusbar.SetNotice(text, isError)
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{Seq: seq}
	})
}

// loginErrorText maps login failures to form feedback.
func loginErrorText(err error) string {
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, api.ErrNetwork):
		return "Could not reach the server"
	default:
		return "Login failed"
	}
}

// registerErrorText maps registration failures to form feedback.
func registerErrorText(err error) string {
	switch {
	case errors.Is(err, api.ErrRegistrationFailed):
		return "Registration failed. Please try again."
	case errors.Is(err, api.ErrNetwork):
		return "Could not reach the server"
	default:
		return "Registration failed"
	}
}

// Quitting reports whether the user asked to exit.
func (m *Model) Quitting() bool {
	return m.quitting
}
