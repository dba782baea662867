// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jeranaias/aurora-tui/internal/auth"
	"github.com/jeranaias/aurora-tui/internal/session"
	"github.com/jeranaias/aurora-tui/internal/ui/components"
)

// Decider produces a verdict. *auth.Manager implements it.
type Decider interface {
	Decide(ctx context.Context) auth.Decision
}

// Unmounter is implemented by children that hold resources (timers,
// watchers) which must be released when the gate goes away.
type Unmounter interface {
	Unmount()
}

// VerdictMsg delivers a decision to the mount that requested it.
type VerdictMsg struct {
	MountID  string
	Decision auth.Decision
}

// RedirectMsg asks the owner to navigate away from protected content.
type RedirectMsg struct {
	MountID string
	Route   session.Route
	Reason  auth.Reason
}

// =============================================================================
// GATE MODEL
// =============================================================================

// Model is one mount of the access gate.
type Model struct {
	id       string
	decider  Decider
	child    tea.Model
	decision auth.Decision
	loading  components.Loading

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// New creates a mount guarding child.
func New(decider Decider, child tea.Model) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		id:      uuid.NewString(),
		decider: decider,
		child:   child,
		loading: components.NewLoading(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// MountID identifies this mount.
func (m Model) MountID() string {
	return m.id
}

// Verdict returns the current verdict.
func (m Model) Verdict() auth.Verdict {
	return m.decision.Verdict
}

// Decision returns the full decision once resolved.
func (m Model) Decision() auth.Decision {
	return m.decision
}

// Child returns the guarded model. Callers must not render it unless the
// verdict is Authorized.
func (m Model) Child() tea.Model {
	return m.child
}

// Unmount cancels a pending decision and releases the child. A verdict
// arriving afterwards is dropped.
func (m Model) Unmount() {
	m.cancel()
	if u, ok := m.child.(Unmounter); ok && m.decision.Verdict == auth.Authorized {
		u.Unmount()
	}
}

// Init starts the loading indicator and the decision.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.decide())
}

// decide runs the decider off the UI goroutine. A panic inside the decider
// resolves to Unauthorized.
func (m Model) decide() tea.Cmd {
	id, ctx, decider := m.id, m.ctx, m.decider
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("gate: decision panicked: %v", r)
				msg = VerdictMsg{MountID: id, Decision: auth.Decision{
					Verdict: auth.Unauthorized,
					Reason:  auth.ReasonInternal,
					Err:     fmt.Errorf("decision panicked: %v", r),
				}}
			}
		}()
		return VerdictMsg{MountID: id, Decision: decider.Decide(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case VerdictMsg:
		return m.resolve(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.loading.SetSize(msg.Width, msg.Height)
	}

	switch m.decision.Verdict {
	case auth.Authorized:
		var cmd tea.Cmd
		m.child, cmd = m.child.Update(msg)
		return m, cmd
	case auth.Unknown:
		var cmd tea.Cmd
		m.loading, cmd = m.loading.Update(msg)
		return m, cmd
	}
	return m, nil
}

// resolve records the first verdict for this mount and ignores the rest.
func (m Model) resolve(msg VerdictMsg) (tea.Model, tea.Cmd) {
	if msg.MountID != m.id || m.decision.Verdict.Resolved() || m.ctx.Err() != nil {
		return m, nil
	}

	d := msg.Decision
	if !d.Verdict.Resolved() {
		// A decider must never hand back Unknown; treat it as a failure.
		d = auth.Decision{Verdict: auth.Unauthorized, Reason: auth.ReasonInternal, Err: d.Err}
	}
	m.decision = d

	if d.Verdict == auth.Authorized {
		cmds := []tea.Cmd{m.child.Init()}
		if m.width > 0 && m.height > 0 {
			var cmd tea.Cmd
			m.child, cmd = m.child.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	log.Printf("gate: mount %s unauthorized (reason=%s)", m.id, d.Reason)
	redirect := RedirectMsg{MountID: m.id, Route: session.RouteLogin, Reason: d.Reason}
	return m, func() tea.Msg { return redirect }
}

// View renders the loading indicator, the child, or nothing.
func (m Model) View() string {
	switch m.decision.Verdict {
	case auth.Authorized:
		return m.child.View()
	case auth.Unauthorized:
		return ""
	default:
		return m.loading.View()
	}
}
