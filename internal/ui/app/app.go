// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aurora-tui/internal/auth"
	"github.com/jeranaias/aurora-tui/internal/credstore"
	"github.com/jeranaias/aurora-tui/internal/gate"
	"github.com/jeranaias/aurora-tui/internal/idle"
	"github.com/jeranaias/aurora-tui/internal/session"
	"github.com/jeranaias/aurora-tui/internal/ui/components"
	"github.com/jeranaias/aurora-tui/internal/ui/styles"
)

// Options configures the root model.
type Options struct {
	Store   credstore.Store
	Decider gate.Decider
	Session *session.Manager

	// IdleTimeout is the inactivity window of each dashboard mount.
	IdleTimeout time.Duration
	// Classifier picks the messages that count as activity. Nil means
	// idle.DefaultEvents.
	Classifier *idle.Classifier
	// IdleOptions are passed to every monitor. Tests inject a clock here.
	IdleOptions []idle.Option

	// StoreChanges signals external writes to the store. May be nil.
	StoreChanges <-chan struct{}

	// Email pre-fills the login form.
	Email   string
	Context context.Context
	Theme   *styles.Theme
}

type screen int

const (
	screenLogin screen = iota
	screenDashboard
	screenExpired
)

func (s screen) String() string {
	switch s {
	case screenDashboard:
		return "dashboard"
	case screenExpired:
		return "expired"
	default:
		return "login"
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root bubbletea model.
type Model struct {
	opts  Options
	keys  KeyMap
	theme *styles.Theme

	screen screen
	form   components.LoginForm
	modal  components.InactivityModal

	// gate is the current dashboard mount. It is only meaningful while
	// mounted is true.
	gate    gate.Model
	mounted bool
	dash    *dashboard

	idle  chan IdleMsg
	email string

	width    int
	height   int
	quitting bool
}

// New creates the root model on the login screen.
func New(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Classifier == nil {
		c := idle.NewClassifier()
		opts.Classifier = &c
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = idle.DefaultTimeout
	}

	m := &Model{
		opts:   opts,
		keys:   DefaultKeyMap(),
		theme:  opts.Theme,
		screen: screenLogin,
		modal:  components.NewInactivityModal(),
		idle:   make(chan IdleMsg, 1),
		email:  opts.Email,
	}
	m.form = m.newForm()
	return m
}

func (m *Model) newForm() components.LoginForm {
	form := components.NewLoginForm(m.theme)
	form.SetEmail(m.email)
	form.SetSize(m.width, m.height)
	return form
}

// Init starts the listeners. Existing credentials go straight to the
// dashboard, which still has to pass the gate.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.form.Init(),
		waitForIdle(m.idle),
		waitForStoreChange(m.opts.StoreChanges),
	}
	if snap, err := m.opts.Store.Read(); err == nil && !snap.Empty() {
		cmds = append(cmds, session.Navigate(session.RouteDashboard))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.authorized() && m.opts.Classifier.IsActivity(msg) {
		m.dash.monitor.Activity()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.LoginSubmitMsg:
		m.email = msg.Email
		return m, m.opts.Session.LoginCmd(m.opts.Context, msg.Email, msg.Password)

	case session.LoginResultMsg:
		return m.handleLoginResult(msg)

	case session.NavigateMsg:
		return m.handleNavigate(msg)

	case gate.RedirectMsg:
		return m.handleRedirect(msg)

	case IdleMsg:
		return m.handleIdle(msg)

	case components.InactivityAcknowledgedMsg:
		return m, session.Navigate(session.RouteLogin)

	case StoreChangedMsg:
		return m.handleStoreChanged()
	}

	return m, m.forward(msg)
}

// authorized reports whether an authorized dashboard is mounted.
func (m *Model) authorized() bool {
	return m.screen == screenDashboard && m.mounted && m.dash != nil &&
		m.gate.Verdict() == auth.Authorized
}

// forward passes msg to the active screen.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.form, cmd = m.form.Update(msg)
	case screenDashboard:
		if m.mounted {
			var updated tea.Model
			updated, cmd = m.gate.Update(msg)
			m.gate = updated.(gate.Model)
		}
	case screenExpired:
		m.modal, cmd = m.modal.Update(msg)
	}
	return cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.form.SetSize(msg.Width, msg.Height)
	m.modal.SetSize(msg.Width, msg.Height)
	if m.mounted {
		updated, cmd := m.gate.Update(msg)
		m.gate = updated.(gate.Model)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Force) {
		return m.quit()
	}
	if m.modal.IsVisible() {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}
	if m.screen == screenDashboard {
		switch {
		case key.Matches(msg, m.keys.Logout):
			m.unmount()
			return m, m.opts.Session.Logout()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	}
	return m, m.forward(msg)
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.unmount()
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) handleLoginResult(msg session.LoginResultMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenLogin {
		return m, nil
	}
	if msg.Err != nil {
		m.form.SetError(session.UserMessage(msg.Err))
		return m, nil
	}
	return m, session.Navigate(session.RouteDashboard)
}

func (m *Model) handleNavigate(msg session.NavigateMsg) (tea.Model, tea.Cmd) {
	switch msg.Route {
	case session.RouteDashboard:
		// A live or pending mount already covers this; only a new mount may
		// re-run the decision.
		if m.screen == screenDashboard && m.mounted && m.gate.Verdict() != auth.Unauthorized {
			return m, nil
		}
		return m, m.mountDashboard()

	case session.RouteLogout:
		m.unmount()
		return m, m.opts.Session.Logout()

	default:
		m.unmount()
		m.modal.Hide()
		m.screen = screenLogin
		m.form = m.newForm()
		return m, m.form.Init()
	}
}

// mountDashboard replaces any current mount with a fresh gate around a new
// dashboard.
func (m *Model) mountDashboard() tea.Cmd {
	m.unmount()

	dash := newDashboard(m.opts.Store, m.theme)
	g := gate.New(m.opts.Decider, dash)
	dash.mount = g.MountID()
	dash.monitor = idle.NewMonitor(m.opts.IdleTimeout, m.onIdle(dash.mount), m.opts.IdleOptions...)

	m.gate = g
	m.mounted = true
	m.dash = dash
	m.screen = screenDashboard

	cmds := []tea.Cmd{g.Init()}
	if m.width > 0 && m.height > 0 {
		updated, cmd := m.gate.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.gate = updated.(gate.Model)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// onIdle runs on the monitor's timer goroutine. The store is cleared there so
// the credentials are gone even if the UI is slow to pick up the message.
func (m *Model) onIdle(mountID string) func() {
	return func() {
		m.opts.Session.Expire()
		select {
		case m.idle <- IdleMsg{MountID: mountID}:
		default:
			log.Printf("app: idle signal for mount %s dropped, one already pending", mountID)
		}
	}
}

func (m *Model) unmount() {
	if m.mounted {
		m.gate.Unmount()
		m.mounted = false
	}
	m.dash = nil
}

func (m *Model) handleRedirect(msg gate.RedirectMsg) (tea.Model, tea.Cmd) {
	if !m.mounted || msg.MountID != m.gate.MountID() {
		return m, nil
	}
	m.unmount()
	return m, session.Navigate(msg.Route)
}

func (m *Model) handleIdle(msg IdleMsg) (tea.Model, tea.Cmd) {
	next := waitForIdle(m.idle)
	if !m.mounted || msg.MountID != m.gate.MountID() {
		return m, next
	}
	m.unmount()
	m.screen = screenExpired
	m.modal.SetSize(m.width, m.height)
	m.modal.Show(m.opts.IdleTimeout)
	return m, next
}

// handleStoreChanged reconciles the screen with a store another process
// rewrote. Our own writes land here too and must be no-ops.
func (m *Model) handleStoreChanged() (tea.Model, tea.Cmd) {
	next := waitForStoreChange(m.opts.StoreChanges)

	snap, err := m.opts.Store.Read()
	if err != nil {
		log.Printf("app: store changed but could not be read: %v", err)
		return m, next
	}

	switch m.screen {
	case screenDashboard:
		if !m.mounted || m.dash == nil {
			return m, next
		}
		if snap.Empty() {
			log.Printf("app: credentials removed externally, leaving dashboard")
			m.unmount()
			return m, tea.Batch(next, session.Navigate(session.RouteLogin))
		}
		if m.dash.creds.UserID != "" && snap.UserID != m.dash.creds.UserID {
			log.Printf("app: different user signed in externally, remounting")
			return m, tea.Batch(next, m.mountDashboard())
		}

	case screenLogin:
		if !snap.Empty() && !m.form.Submitting() {
			return m, tea.Batch(next, session.Navigate(session.RouteDashboard))
		}
	}
	return m, next
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.modal.IsVisible() {
		return m.modal.View()
	}

	switch m.screen {
	case screenLogin:
		form := m.theme.Box.Render(m.form.View())
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
		}
		return form
	case screenDashboard:
		if m.mounted {
			return m.gate.View()
		}
	}
	return ""
}
