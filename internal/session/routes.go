// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import tea "github.com/charmbracelet/bubbletea"

// Route names a top-level screen.
type Route string

const (
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteLogout    Route = "logout"
)

// String returns the route path.
func (r Route) String() string {
	return "/" + string(r)
}

// NavigateMsg asks the root model to switch screens.
type NavigateMsg struct {
	Route Route
}

// Navigate returns a command that emits NavigateMsg for r.
func Navigate(r Route) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: r}
	}
}
