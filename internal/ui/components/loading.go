// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/ui/styles"
)

// Loading is the pending-decision indicator.
type Loading struct {
	spinner spinner.Model
	message string
	width   int
	height  int
}

// NewLoading creates a loading indicator with an ASCII spinner.
func NewLoading() Loading {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Amber)
	return Loading{spinner: s, message: "Loading..."}
}

// SetSize sets the area the indicator is centered in.
func (l *Loading) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Init starts the animation.
func (l Loading) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the animation.
func (l Loading) Update(msg tea.Msg) (Loading, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return l, nil
	}
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the spinner and message.
func (l Loading) View() string {
	text := l.spinner.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(l.message)
	if l.width == 0 || l.height == 0 {
		return text
	}
	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, text)
}
