// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/credstore"
	"github.com/jeranaias/aurora-tui/internal/idle"
	"github.com/jeranaias/aurora-tui/internal/ui/components"
	"github.com/jeranaias/aurora-tui/internal/ui/styles"
)

// dashboard is the authenticated layout. It only ever exists behind a gate,
// and its Init runs only once the gate has authorized the mount.
type dashboard struct {
	mount   string
	store   credstore.Store
	monitor *idle.Monitor
	header  *components.Header
	theme   *styles.Theme
	creds   credstore.Credentials
	width   int
	height  int
}

// newDashboard creates an unmounted dashboard. The owner assigns mount and
// monitor once the gate exists.
func newDashboard(store credstore.Store, theme *styles.Theme) *dashboard {
	return &dashboard{
		store:  store,
		header: components.NewHeader(theme),
		theme:  theme,
	}
}

func (d *dashboard) tick() tea.Cmd {
	mount := d.mount
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{Mount: mount} })
}

// Init starts the inactivity countdown.
func (d *dashboard) Init() tea.Cmd {
	if snap, err := d.store.Read(); err == nil {
		d.creds = snap.Credentials
	}
	d.header.Role = d.creds.Role
	d.header.UserID = d.creds.UserID
	d.monitor.Start()
	d.header.Remaining = d.monitor.Remaining()
	return d.tick()
}

// Unmount stops the countdown. The gate calls it when the mount goes away.
func (d *dashboard) Unmount() {
	d.monitor.Stop()
}

func (d *dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width, d.height = msg.Width, msg.Height
		d.header.SetWidth(msg.Width)
	case tickMsg:
		if msg.Mount != d.mount || !d.monitor.Running() {
			return d, nil
		}
		d.header.Remaining = d.monitor.Remaining()
		return d, d.tick()
	}
	return d, nil
}

func (d *dashboard) View() string {
	var b strings.Builder
	b.WriteString(d.header.View())
	b.WriteString("\n\n")

	body := []string{
		d.theme.Authorized.Render(styles.StatusIndicators.Success + " Signed in"),
		"",
		d.theme.Label.Render("Role     ") + string(d.creds.Role),
		d.theme.Label.Render("User     ") + d.creds.UserID,
		"",
		d.theme.Hint.Render("Records, assessments and reports open from here."),
		d.theme.Hint.Render("You will be signed out after a period of inactivity."),
	}
	b.WriteString(d.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, body...)))
	b.WriteString("\n\n")
	b.WriteString(d.theme.Hint.Render("ctrl+l: log out  q: quit"))
	return b.String()
}
