// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// EventKind is a class of user input.
type EventKind string

const (
	EventKey         EventKind = "key"
	EventMouseClick  EventKind = "mouse_click"
	EventMouseMotion EventKind = "mouse_motion"
)

// DefaultEvents mirrors what a browser session counts as presence: typing
// and moving or clicking the mouse.
var DefaultEvents = []EventKind{EventKey, EventMouseMotion, EventMouseClick}

// ParseEvents validates configured event names.
func ParseEvents(names []string) ([]EventKind, error) {
	if len(names) == 0 {
		return append([]EventKind(nil), DefaultEvents...), nil
	}
	kinds := make([]EventKind, 0, len(names))
	for _, name := range names {
		kind := EventKind(strings.ToLower(strings.TrimSpace(name)))
		switch kind {
		case EventKey, EventMouseClick, EventMouseMotion:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown activity event %q", name)
		}
	}
	return kinds, nil
}

// Classifier decides which bubbletea messages count as activity.
type Classifier struct {
	enabled map[EventKind]bool
}

// NewClassifier recognises the given kinds. No kinds means DefaultEvents.
func NewClassifier(kinds ...EventKind) Classifier {
	if len(kinds) == 0 {
		kinds = DefaultEvents
	}
	enabled := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		enabled[k] = true
	}
	return Classifier{enabled: enabled}
}

// Kind maps msg to an event kind. ok is false for non-input messages.
func Kind(msg tea.Msg) (kind EventKind, ok bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Pasted text arrives as ordinary runes.
		return EventKey, true
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseMotion, tea.MouseWheelUp, tea.MouseWheelDown:
			return EventMouseMotion, true
		case tea.MouseUnknown:
			return "", false
		default:
			return EventMouseClick, true
		}
	}
	return "", false
}

// IsActivity reports whether msg is a recognised activity event.
func (c Classifier) IsActivity(msg tea.Msg) bool {
	kind, ok := Kind(msg)
	return ok && c.enabled[kind]
}

// Enabled reports whether kind is recognised.
func (c Classifier) Enabled(kind EventKind) bool {
	return c.enabled[kind]
}
