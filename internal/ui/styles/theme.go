// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chatmc TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette colors. Primary matches the web client's brand green.
const (
	ColorPrimary   = lipgloss.Color("#10a37f")
	ColorUserText  = lipgloss.Color("#ffffff")
	ColorBotDark   = lipgloss.Color("#ececec")
	ColorBotLight  = lipgloss.Color("#1a1a1a")
	ColorMuted     = lipgloss.Color("#8e8e8e")
	ColorError     = lipgloss.Color("#ef4146")
	ColorWarning   = lipgloss.Color("#f5a623")
	ColorSurface   = lipgloss.Color("#2d2d2d")
	ColorHighlight = lipgloss.Color("#3d3d3d")
)

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark bool

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel   lipgloss.Style
	BotLabel    lipgloss.Style
	UserBubble  lipgloss.Style
	BotBubble   lipgloss.Style
	FailedMark  lipgloss.Style
	PendingMark lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarMeta     lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	StatusBar      lipgloss.Style
	StatusUser     lipgloss.Style
	StatusNotice   lipgloss.Style
	StatusError    lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// FORM STYLES
	// ==========================================================================

	FormBox     lipgloss.Style
	FormTitle   lipgloss.Style
	FormLabel   lipgloss.Style
	FormError   lipgloss.Style
	FormHint    lipgloss.Style
	ButtonFocus lipgloss.Style
	ButtonBlur  lipgloss.Style
}

// NewTheme creates a theme for the given variant ("dark" or "light").
func NewTheme(variant string) *Theme {
	dark := variant != "light"

	botText := ColorBotDark
	if !dark {
		botText = ColorBotLight
	}

	t := &Theme{IsDark: dark}

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	t.BotLabel = lipgloss.NewStyle().Bold(true).Foreground(ColorMuted)
	t.UserBubble = lipgloss.NewStyle().Foreground(ColorUserText)
	t.BotBubble = lipgloss.NewStyle().Foreground(botText)
	t.FailedMark = lipgloss.NewStyle().Foreground(ColorError)
	t.PendingMark = lipgloss.NewStyle().Foreground(ColorWarning)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(ColorHighlight).
		PaddingRight(1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).PaddingBottom(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(botText)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(ColorUserText).
		Background(ColorPrimary).
		Bold(true)
	t.SidebarMeta = lipgloss.NewStyle().Foreground(ColorMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	t.StatusBar = lipgloss.NewStyle().Background(ColorSurface).Foreground(ColorMuted).Padding(0, 1)
	t.StatusUser = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	t.StatusNotice = lipgloss.NewStyle().Foreground(ColorPrimary)
	t.StatusError = lipgloss.NewStyle().Foreground(ColorError)
	t.Spinner = lipgloss.NewStyle().Foreground(ColorPrimary)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 3)
	t.FormTitle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).PaddingBottom(1)
	t.FormLabel = lipgloss.NewStyle().Foreground(ColorMuted)
	t.FormError = lipgloss.NewStyle().Foreground(ColorError).PaddingTop(1)
	t.FormHint = lipgloss.NewStyle().Foreground(ColorMuted).PaddingTop(1)
	t.ButtonFocus = lipgloss.NewStyle().
		Foreground(ColorUserText).
		Background(ColorPrimary).
		Bold(true).
		Padding(0, 2)
	t.ButtonBlur = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 2)

	return t
}

// Resize updates the layout dimensions.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
}
