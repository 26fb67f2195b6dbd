// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/chatmc-tui/internal/ui/styles"
)

// AuthMode selects which form the auth screen shows.
type AuthMode int

const (
	// ModeLogin is the username/password form.
	ModeLogin AuthMode = iota
	// ModeRegister adds the email field.
	ModeRegister
)

// AuthSubmit carries the values of a submitted form.
type AuthSubmit struct {
	Mode     AuthMode
	Username string
	Email    string
	Password string
}

// AuthForm is the login/register form. Tab cycles fields, enter submits,
// ctrl+r toggles between login and register.
type AuthForm struct {
	theme    *styles.Theme
	mode     AuthMode
	username textinput.Model
	email    textinput.Model
	password textinput.Model
	focus    int
	errText  string
}

// NewAuthForm creates a login form with the username field focused.
func NewAuthForm(theme *styles.Theme) *AuthForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &AuthForm{
		theme:    theme,
		username: username,
		email:    email,
		password: password,
	}
}

// Mode returns the current form mode.
func (f *AuthForm) Mode() AuthMode {
	return f.mode
}

// ToggleMode switches between login and register, keeping typed values.
func (f *AuthForm) ToggleMode() {
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}
	f.errText = ""
	f.setFocus(0)
}

// SetError shows an error line under the form.
func (f *AuthForm) SetError(text string) {
	f.errText = text
}

// Reset clears values and errors, returning to the login mode.
func (f *AuthForm) Reset() {
	f.mode = ModeLogin
	f.username.SetValue("")
	f.email.SetValue("")
	f.password.SetValue("")
	f.errText = ""
	f.setFocus(0)
}

// fields returns the visible inputs in focus order.
func (f *AuthForm) fields() []*textinput.Model {
	if f.mode == ModeRegister {
		return []*textinput.Model{&f.username, &f.email, &f.password}
	}
	return []*textinput.Model{&f.username, &f.password}
}

func (f *AuthForm) setFocus(i int) {
	fields := f.fields()
	if i >= len(fields) {
		i = 0
	}
	f.focus = i
	for j, field := range fields {
		if j == i {
			field.Focus()
		} else {
			field.Blur()
		}
	}
}

// Update handles key input. It returns a non-nil submit when the user
// pressed enter on a complete form.
func (f *AuthForm) Update(msg tea.Msg) (*AuthSubmit, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil, nil
		case "shift+tab", "up":
			if f.focus == 0 {
				f.setFocus(len(f.fields()) - 1)
			} else {
				f.setFocus(f.focus - 1)
			}
			return nil, nil
		case "ctrl+r":
			f.ToggleMode()
			return nil, nil
		case "enter":
			username := strings.TrimSpace(f.username.Value())
			password := f.password.Value()
			email := strings.TrimSpace(f.email.Value())
			if username == "" || password == "" || (f.mode == ModeRegister && email == "") {
				f.errText = "all fields are required"
				return nil, nil
			}
			return &AuthSubmit{
				Mode:     f.mode,
				Username: username,
				Email:    email,
				Password: password,
			}, nil
		}
	}

	var cmds []tea.Cmd
	for _, field := range f.fields() {
		var cmd tea.Cmd
		*field, cmd = field.Update(msg)
		cmds = append(cmds, cmd)
	}
	return nil, tea.Batch(cmds...)
}

// View renders the form.
func (f *AuthForm) View() string {
	title := "Login"
	hint := "enter: login · ctrl+r: switch to register · ctrl+c: quit"
	if f.mode == ModeRegister {
		title = "Register"
		hint = "enter: register · ctrl+r: switch to login · ctrl+c: quit"
	}

	var rows []string
	rows = append(rows, f.theme.FormTitle.Render(title))
	rows = append(rows, f.theme.FormLabel.Render("Username"), f.username.View())
	if f.mode == ModeRegister {
		rows = append(rows, f.theme.FormLabel.Render("Email"), f.email.View())
	}
	rows = append(rows, f.theme.FormLabel.Render("Password"), f.password.View())
	if f.errText != "" {
		rows = append(rows, f.theme.FormError.Render(f.errText))
	}
	rows = append(rows, f.theme.FormHint.Render(hint))

	return f.theme.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
