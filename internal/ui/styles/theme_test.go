// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTheme(t *testing.T) {
	for _, name := range []string{"auto", "dark", "light", "mono", "DARK", ""} {
		assert.True(t, ValidTheme(name), name)
	}
	assert.False(t, ValidTheme("solarized"))
}

func TestApplyTheme_Unknown(t *testing.T) {
	assert.Error(t, ApplyTheme("solarized"))
}

func TestApplyTheme_Mono(t *testing.T) {
	assert.NoError(t, ApplyTheme(ThemeMono))
	out := NewTheme().Error.Render("denied")
	assert.NotContains(t, out, "\x1b[", "mono renders without escape sequences")
}

func TestRenderHelpersCarryIndicators(t *testing.T) {
	assert.True(t, strings.Contains(RenderSuccess("ok"), StatusIndicators.Success))
	assert.True(t, strings.Contains(RenderError("no"), StatusIndicators.Error))
	assert.True(t, strings.Contains(RenderWarning("hm"), StatusIndicators.Warning))
}
