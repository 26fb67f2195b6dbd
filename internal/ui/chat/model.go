// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/chatmc-tui/internal/config"
	"github.com/morganforge/chatmc-tui/internal/coordinator"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/ui/components"
	"github.com/morganforge/chatmc-tui/internal/ui/styles"
	"github.com/morganforge/chatmc-tui/internal/util"
)

// focusArea tracks which pane receives key input.
type focusArea int

const (
	focusPrompt focusArea = iota
	focusSidebar
	focusRename
)

const sidebarWidth = 30

// Model is the root Bubble Tea model. It renders one of two screens: the
// auth form while logged out, the chat layout while logged in. All state
// transitions flow through the coordinator; the model only renders and
// routes input.
type Model struct {
	ctx   context.Context
	coord *coordinator.Coordinator
	log   logging.Logger

	theme  *styles.Theme
	keys   KeyMap
	width  int
	height int
	ready  bool

	// Chat screen
	viewport    viewport.Model
	prompt      textinput.Model
	spinner     spinner.Model
	sidebar     *components.Sidebar
	statusbar   *components.StatusBar
	renderer    *glamour.TermRenderer
	focus       focusArea
	renameInput textinput.Model
	renameID    int64

	// Auth screen
	authForm *components.AuthForm

	// Status notice bookkeeping: only the latest notice may clear itself.
	noticeSeq int

	markdown bool
	compact  bool
	quitting bool
}

// New creates the root model.
func New(ctx context.Context, coord *coordinator.Coordinator, theme *styles.Theme, ui config.UIConfig, log logging.Logger) *Model {
	if log == nil {
		log = logging.Nop()
	}

	prompt := textinput.New()
	prompt.Placeholder = "Type a message..."
	prompt.CharLimit = 4000
	prompt.Focus()

	rename := textinput.New()
	rename.Placeholder = "new title"
	rename.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return &Model{
		ctx:         ctx,
		coord:       coord,
		log:         log,
		theme:       theme,
		keys:        DefaultKeyMap(),
		prompt:      prompt,
		renameInput: rename,
		spinner:     sp,
		sidebar:     components.NewSidebar(theme),
		statusbar:   components.NewStatusBar(theme),
		authForm:    components.NewAuthForm(theme),
		markdown:    ui.Markdown,
		compact:     ui.CompactMode,
	}
}

// Init starts the coordinator event listener and, for a restored session,
// the initial directory refresh.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listenEvents(), textinput.Blink}
	if m.coord.Session().IsAuthenticated() {
		cmds = append(cmds, m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

// authenticated reports whether the chat screen should be shown.
func (m *Model) authenticated() bool {
	return m.coord.Session().IsAuthenticated()
}

// =============================================================================
// COMMANDS
// =============================================================================

// listenEvents waits for the next coordinator event.
func (m *Model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.coord.Events()
		if !ok {
			return nil
		}
		return coordinatorEventMsg{Event: ev}
	}
}

func (m *Model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{Err: m.coord.Login(m.ctx, username, password)}
	}
}

func (m *Model) registerCmd(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		return registerResultMsg{Err: m.coord.Register(m.ctx, username, email, password)}
	}
}

func (m *Model) sendCmd(prompt string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{Err: m.coord.Send(m.ctx, prompt)}
	}
}

func (m *Model) openCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return openResultMsg{ID: id, Err: m.coord.OpenConversation(m.ctx, id)}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshResultMsg{Err: m.coord.RefreshDirectory(m.ctx)}
	}
}

func (m *Model) renameCmd(id int64, title string) tea.Cmd {
	return func() tea.Msg {
		return renameResultMsg{Err: m.coord.Rename(m.ctx, id, title)}
	}
}

func (m *Model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return deleteResultMsg{Err: m.coord.Delete(m.ctx, id)}
	}
}

// exportCmd writes the current transcript to the exports directory under
// the app dir.
func (m *Model) exportCmd() tea.Cmd {
	return func() tea.Msg {
		appDir, err := config.AppDir()
		if err != nil {
			return exportResultMsg{Err: err}
		}
		tr := m.coord.Transcript()
		path, err := util.AtomicWriteFileInDir(
			filepath.Join(appDir, "exports"),
			tr.ExportFilename(time.Now()),
			tr.ExportMarkdown(),
			0o600,
		)
		return exportResultMsg{Path: path, Err: err}
	}
}
