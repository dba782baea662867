// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points AURORA_HOME at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AURORA_HOME", dir)
	t.Setenv("AURORA_API_URL", "")
	t.Setenv("AURORA_IDLE_TIMEOUT", "")
	t.Setenv("AURORA_STORE_BACKEND", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout())
	assert.Equal(t, 10*time.Second, cfg.RefreshTimeout())
	assert.False(t, cfg.Session.ClearOnRefreshFailure)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[api]
base_url = "https://records.example.org/api/"

[session]
idle_timeout_secs = 600
clear_on_refresh_failure = true
activity_events = ["key", "mouse_click"]

[store]
backend = "sqlite"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://records.example.org/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 10*time.Minute, cfg.IdleTimeout())
	assert.True(t, cfg.Session.ClearOnRefreshFailure)
	assert.Equal(t, []string{"key", "mouse_click"}, cfg.Session.ActivityEvents)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.True(t, cfg.Store.Encrypt, "unset bools keep their defaults")
	assert.Equal(t, 15*time.Second, cfg.APITimeout())

	storePath, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aurora.db"), storePath)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"session":{"idle_timeout_secs":120}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout())
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[api\nbase_url=")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FixesPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"mono\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("AURORA_API_URL", "https://staging.example.org/api")
	t.Setenv("AURORA_IDLE_TIMEOUT", "15m")
	t.Setenv("AURORA_STORE_BACKEND", "MEMORY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.org/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.IdleTimeout())
	assert.Equal(t, "memory", cfg.Store.Backend)

	path, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestApplyEnvOverrides_Seconds(t *testing.T) {
	isolate(t)
	t.Setenv("AURORA_IDLE_TIMEOUT", "90")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 90, cfg.Session.IdleTimeoutSecs)
}

func TestApplyEnvOverrides_BadValueIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("AURORA_IDLE_TIMEOUT", "soon")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 1800, cfg.Session.IdleTimeoutSecs)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://nope"
	cfg.Session.IdleTimeoutSecs = 1
	cfg.Session.ActivityEvents = []string{"scroll"}
	cfg.Store.Backend = "redis"
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, f := range []string{"api.base_url", "session.idle_timeout_secs", "session.activity_events", "store.backend", "ui.theme"} {
		assert.True(t, fields[f], "missing error for %s", f)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidateErrors{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}
	assert.Equal(t, "a: bad; b: worse", e.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

func TestLoad_BackendCaseNormalised(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[store]\nbackend = \" SQLite \"\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)

	storePath, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aurora.db"), storePath)
}

func TestValidate_BackendIsExact(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "SQLite"
	assert.Error(t, cfg.Validate(), "unnormalised backends are rejected")
}

func TestValidate_PasteIsNotAnEvent(t *testing.T) {
	cfg := Default()
	cfg.Session.ActivityEvents = []string{"key", "paste"}
	assert.Error(t, cfg.Validate())
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global and SetGlobal can be called
// concurrently. Run with -race.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestSetGlobal_WinsOverDisk(t *testing.T) {
	dir := isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	writeFile(t, filepath.Join(dir, "config.toml"), "[session]\nidle_timeout_secs = 60\n")
	cfg := Default()
	cfg.Store.Backend = "memory"
	SetGlobal(cfg)

	assert.Same(t, cfg, Global())
	assert.Equal(t, 1800, Global().Session.IdleTimeoutSecs)
}

func TestGlobal_LoadsOnFirstUse(t *testing.T) {
	dir := isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	writeFile(t, filepath.Join(dir, "config.toml"), "[session]\nidle_timeout_secs = 60\n")
	assert.Equal(t, 60, Global().Session.IdleTimeoutSecs)
}
