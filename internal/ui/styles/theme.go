// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by ApplyTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeMono  = "mono"
)

// ValidTheme reports whether name is a known theme.
func ValidTheme(name string) bool {
	switch strings.ToLower(name) {
	case ThemeAuto, ThemeDark, ThemeLight, ThemeMono, "":
		return true
	}
	return false
}

// ApplyTheme configures the default Lip Gloss renderer for name. NO_COLOR
// always wins and selects mono.
func ApplyTheme(name string) error {
	if !ValidTheme(name) {
		return fmt.Errorf("unknown theme %q", name)
	}
	if os.Getenv("NO_COLOR") != "" {
		name = ThemeMono
	}

	switch strings.ToLower(name) {
	case ThemeMono:
		lipgloss.SetColorProfile(termenv.Ascii)
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
	return nil
}

// Theme holds the styles shared by the screens.
type Theme struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Header     lipgloss.Style
	Label      lipgloss.Style
	Focused    lipgloss.Style
	Blurred    lipgloss.Style
	Error      lipgloss.Style
	Hint       lipgloss.Style
	Box        lipgloss.Style
	Authorized lipgloss.Style
}

// NewTheme builds the shared styles.
func NewTheme() *Theme {
	return &Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(Purple),
		Subtitle: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Italic(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			Background(SurfaceDim).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(TextSecondary),
		Focused: lipgloss.NewStyle().
			Foreground(Cyan),
		Blurred: lipgloss.NewStyle().
			Foreground(TextMuted),
		Error: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),
		Hint: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(1, 3),
		Authorized: lipgloss.NewStyle().
			Foreground(Emerald),
	}
}
