// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import tea "github.com/charmbracelet/bubbletea"

// IdleMsg reports that the inactivity window of a dashboard mount elapsed.
// The store has already been cleared when it arrives.
type IdleMsg struct {
	MountID string
}

// StoreChangedMsg reports that another process rewrote or removed the
// credential store.
type StoreChangedMsg struct{}

// tickMsg refreshes the dashboard countdown.
type tickMsg struct {
	Mount string
}

// waitForIdle blocks until the monitor signals.
func waitForIdle(ch <-chan IdleMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// waitForStoreChange blocks until the watcher signals. A closed channel ends
// the listening loop.
func waitForStoreChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return StoreChangedMsg{}
	}
}
