// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/ui/styles"
	"github.com/jeranaias/aurora-tui/internal/util"
)

// InactivityMessage is the notice body.
const InactivityMessage = "You have been logged out due to inactivity."

// =============================================================================
// INACTIVITY MODAL
// =============================================================================

// InactivityModal tells the user their session ended while they were away.
// Credentials are already gone by the time it is shown.
type InactivityModal struct {
	visible bool
	idleFor time.Duration
	ok      key.Binding

	width  int
	height int
}

// InactivityAcknowledgedMsg is emitted when the user presses OK.
type InactivityAcknowledgedMsg struct{}

// NewInactivityModal creates a hidden modal.
func NewInactivityModal() InactivityModal {
	return InactivityModal{
		ok: key.NewBinding(
			key.WithKeys("enter", "o", "O"),
			key.WithHelp("enter", "OK"),
		),
	}
}

// SetSize sets the area the modal is centered in.
func (m *InactivityModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Show displays the modal. idleFor is the configured window, shown to the
// user for context.
func (m *InactivityModal) Show(idleFor time.Duration) {
	m.visible = true
	m.idleFor = idleFor
}

// Hide hides the modal.
func (m *InactivityModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is showing.
func (m InactivityModal) IsVisible() bool {
	return m.visible
}

// Update handles input while visible. Every key except OK is swallowed.
func (m InactivityModal) Update(msg tea.Msg) (InactivityModal, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.visible && key.Matches(msg, m.ok) {
			m.visible = false
			return m, func() tea.Msg { return InactivityAcknowledgedMsg{} }
		}
	}
	return m, nil
}

// View renders the modal centered in its area.
func (m InactivityModal) View() string {
	if !m.visible {
		return ""
	}

	width := m.width
	if width == 0 {
		width = 60
	}
	height := m.height
	if height == 0 {
		height = 24
	}

	boxWidth := width - 8
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > 60 {
		boxWidth = 60
	}

	title := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true).
		Render(styles.StatusIndicators.Error + " Session Ended")

	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(boxWidth - 8).
		Align(lipgloss.Center).
		Render(InactivityMessage)

	parts := []string{title, "", body}
	if m.idleFor > 0 {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render("No activity for "+util.FormatDuration(m.idleFor)))
	}

	button := lipgloss.NewStyle().
		Foreground(styles.SurfaceDim).
		Background(styles.Rose).
		Bold(true).
		Padding(0, 3).
		Render("OK")
	hint := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Render("Press Enter to sign in again")
	parts = append(parts, "", button, "", hint)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}
