// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for the aurora TUI.

Colors are Lip Gloss AdaptiveColors, so they follow the terminal's light or
dark background unless a theme is forced.

# Palette (colors.go)

  - Cyan - brand, focused inputs
  - Emerald - authorized state
  - Amber - loading and caution
  - Rose - errors and the inactivity notice

# Themes (theme.go)

ApplyTheme selects how colors render:

	auto  - detect the terminal background
	dark  - force the dark variants
	light - force the light variants
	mono  - no color at all (also chosen when NO_COLOR is set)

Status text always carries an ASCII indicator ([OK], [X], [!]) so meaning
never depends on color alone.
*/
package styles
