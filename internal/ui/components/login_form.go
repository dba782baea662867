// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM
// =============================================================================

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// LoginSubmitMsg carries the entered credentials to the owner of the form.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

type loginKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
}

var loginKeys = loginKeyMap{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
}

// LoginForm collects an email and password.
type LoginForm struct {
	inputs     [fieldCount]textinput.Model
	focus      int
	err        string
	submitting bool
	theme      *styles.Theme
	width      int
	height     int
}

// NewLoginForm creates a form focused on the email field.
func NewLoginForm(theme *styles.Theme) LoginForm {
	if theme == nil {
		theme = styles.NewTheme()
	}

	email := textinput.New()
	email.Placeholder = "you@example.org"
	email.CharLimit = 254
	email.Width = 36
	email.Prompt = "Email    "

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 36
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	f := LoginForm{theme: theme}
	f.inputs[fieldEmail] = email
	f.inputs[fieldPassword] = password
	f.applyFocus()
	return f
}

// SetSize sets the area the form is centered in.
func (f *LoginForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetEmail pre-fills the email field.
func (f *LoginForm) SetEmail(email string) {
	f.inputs[fieldEmail].SetValue(email)
	if email != "" {
		f.focus = fieldPassword
		f.applyFocus()
	}
}

// SetError shows msg under the form and re-enables submission. The password
// is cleared.
func (f *LoginForm) SetError(msg string) {
	f.err = msg
	f.submitting = false
	f.inputs[fieldPassword].SetValue("")
	f.focus = fieldPassword
	f.applyFocus()
}

// Error returns the inline error text.
func (f LoginForm) Error() string {
	return f.err
}

// Submitting reports whether a submission is in flight.
func (f LoginForm) Submitting() bool {
	return f.submitting
}

// Init starts the cursor blink.
func (f LoginForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation and text entry.
func (f LoginForm) Update(msg tea.Msg) (LoginForm, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.SetSize(msg.Width, msg.Height)
		return f, nil

	case tea.KeyMsg:
		if f.submitting {
			return f, nil
		}
		switch {
		case key.Matches(msg, loginKeys.Next):
			f.focus = (f.focus + 1) % fieldCount
			return f, f.applyFocus()
		case key.Matches(msg, loginKeys.Prev):
			f.focus = (f.focus + fieldCount - 1) % fieldCount
			return f, f.applyFocus()
		case key.Matches(msg, loginKeys.Submit):
			if f.focus == fieldEmail {
				f.focus = fieldPassword
				return f, f.applyFocus()
			}
			return f.submit()
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f LoginForm) submit() (LoginForm, tea.Cmd) {
	email := strings.TrimSpace(f.inputs[fieldEmail].Value())
	password := f.inputs[fieldPassword].Value()
	if email == "" || password == "" {
		f.err = "Email and password are required."
		return f, nil
	}

	f.err = ""
	f.submitting = true
	return f, func() tea.Msg {
		return LoginSubmitMsg{Email: email, Password: password}
	}
}

// applyFocus focuses the current field and blurs the rest.
func (f *LoginForm) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			f.inputs[i].PromptStyle = f.theme.Focused
			continue
		}
		f.inputs[i].Blur()
		f.inputs[i].PromptStyle = f.theme.Blurred
	}
	return cmd
}

// View renders the form.
func (f LoginForm) View() string {
	lines := []string{
		f.theme.Title.Render("AURORA"),
		f.theme.Subtitle.Render("Sign in to continue"),
		"",
		f.inputs[fieldEmail].View(),
		f.inputs[fieldPassword].View(),
		"",
	}

	switch {
	case f.submitting:
		lines = append(lines, f.theme.Hint.Render("Signing in..."))
	case f.err != "":
		lines = append(lines, f.theme.Error.Render(styles.StatusIndicators.Error+" "+f.err))
	default:
		lines = append(lines, f.theme.Hint.Render("tab: next field  enter: sign in  ctrl+c: quit"))
	}

	box := f.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if f.width == 0 || f.height == 0 {
		return box
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}
