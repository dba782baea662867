// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/aurora-tui/internal/credstore"
	"github.com/jeranaias/aurora-tui/internal/ui/styles"
	"github.com/jeranaias/aurora-tui/internal/util"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the dashboard title bar.
type Header struct {
	Title     string
	Role      credstore.Role
	UserID    string
	Remaining time.Duration // idle time left, zero hides it
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &Header{Title: "AURORA", Width: 80, theme: theme}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// status builds the right-hand text.
func (h *Header) status() string {
	var parts []string
	if h.Role != "" {
		parts = append(parts, string(h.Role))
	}
	if h.UserID != "" {
		parts = append(parts, "user "+h.UserID)
	}
	if h.Remaining > 0 {
		parts = append(parts, "idle "+util.FormatDuration(h.Remaining))
	}
	return strings.Join(parts, " | ")
}

// View renders the header padded or truncated to Width cells.
func (h *Header) View() string {
	width := h.Width
	if width <= 0 {
		width = 80
	}
	inner := width - h.theme.Header.GetHorizontalPadding()
	if inner < 1 {
		inner = 1
	}

	title := h.Title
	status := h.status()

	line := title
	gap := inner - runewidth.StringWidth(title) - runewidth.StringWidth(status)
	if status != "" {
		if gap < 1 {
			gap = 1
		}
		line = title + strings.Repeat(" ", gap) + status
	}
	line = util.TruncateWidth(line, inner)
	if pad := inner - runewidth.StringWidth(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}

	return h.theme.Header.Render(line)
}

// Height returns the rendered height.
func (h *Header) Height() int {
	return lipgloss.Height(h.View())
}
