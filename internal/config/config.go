// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aurora configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Session SessionConfig `toml:"session" json:"session"`
	Store   StoreConfig   `toml:"store" json:"store"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig locates the record service.
type APIConfig struct {
	// BaseURL is prefixed to every endpoint path, e.g. http://host/api
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds each HTTP request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// SessionConfig controls the guard.
type SessionConfig struct {
	// IdleTimeoutSecs is the inactivity window before automatic logout.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
	// RefreshTimeoutSecs bounds one token refresh.
	RefreshTimeoutSecs int `toml:"refresh_timeout_secs" json:"refresh_timeout_secs"`
	// ClearOnRefreshFailure wipes credentials when a refresh fails instead of
	// keeping the stale pair for the next attempt.
	ClearOnRefreshFailure bool `toml:"clear_on_refresh_failure" json:"clear_on_refresh_failure"`
	// ActivityEvents lists input kinds that count as activity:
	// key, mouse_click, mouse_motion.
	ActivityEvents []string `toml:"activity_events" json:"activity_events"`
}

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`
	// Path overrides the backend's default location.
	Path string `toml:"path" json:"path"`
	// Encrypt seals the file backend with a local key.
	Encrypt bool `toml:"encrypt" json:"encrypt"`
}

// UIConfig contains terminal settings.
type UIConfig struct {
	// Theme is "auto", "dark", "light" or "mono".
	Theme     string `toml:"theme" json:"theme"`
	AltScreen bool   `toml:"alt_screen" json:"alt_screen"`
	// Mouse enables mouse reporting, needed for mouse activity events.
	Mouse bool `toml:"mouse" json:"mouse"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8000/api",
			TimeoutSecs: 15,
		},
		Session: SessionConfig{
			IdleTimeoutSecs:       1800, // 30 minutes
			RefreshTimeoutSecs:    10,
			ClearOnRefreshFailure: false,
			ActivityEvents:        []string{"key", "mouse_motion", "mouse_click"},
		},
		Store: StoreConfig{
			Backend: "file",
			Encrypt: true,
		},
		UI: UIConfig{
			Theme:     "auto",
			AltScreen: true,
			Mouse:     true,
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if cfg.Session.IdleTimeoutSecs == 0 {
		cfg.Session.IdleTimeoutSecs = defaults.Session.IdleTimeoutSecs
	}
	if cfg.Session.RefreshTimeoutSecs == 0 {
		cfg.Session.RefreshTimeoutSecs = defaults.Session.RefreshTimeoutSecs
	}
	if len(cfg.Session.ActivityEvents) == 0 {
		cfg.Session.ActivityEvents = defaults.Session.ActivityEvents
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = defaults.Store.Backend
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the aurora directory: $AURORA_HOME or ~/.aurora.
func ConfigDir() (string, error) {
	if dir := os.Getenv("AURORA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aurora"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns where the TUI writes its log while it owns the terminal.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "aurora.log"), nil
}

// EnsureConfigDir ensures the config directory exists with owner-only access.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// IdleTimeout returns the inactivity window.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutSecs) * time.Second
}

// RefreshTimeout returns the refresh bound.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.Session.RefreshTimeoutSecs) * time.Second
}

// APITimeout returns the per-request HTTP timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// StorePath resolves the credential store location for the configured
// backend. The memory backend has no path.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" || c.Store.Backend == "memory" {
		return c.Store.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Store.Backend == "sqlite" {
		return filepath.Join(dir, "aurora.db"), nil
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// KeyPath returns the sealing key location next to the store.
func (c *Config) KeyPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "store.key"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validThemes   = map[string]bool{"auto": true, "dark": true, "light": true, "mono": true}
	validEvents   = map[string]bool{"key": true, "mouse_click": true, "mouse_motion": true}
)

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.API.BaseURL),
		})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 300, got %d", c.API.TimeoutSecs),
		})
	}

	// Session
	if c.Session.IdleTimeoutSecs < 10 || c.Session.IdleTimeoutSecs > 24*60*60 {
		errs = append(errs, ValidationError{
			Field:   "session.idle_timeout_secs",
			Message: fmt.Sprintf("must be between 10 and 86400, got %d", c.Session.IdleTimeoutSecs),
		})
	}
	if c.Session.RefreshTimeoutSecs < 1 || c.Session.RefreshTimeoutSecs > 120 {
		errs = append(errs, ValidationError{
			Field:   "session.refresh_timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 120, got %d", c.Session.RefreshTimeoutSecs),
		})
	}
	for _, ev := range c.Session.ActivityEvents {
		if !validEvents[strings.ToLower(strings.TrimSpace(ev))] {
			errs = append(errs, ValidationError{
				Field:   "session.activity_events",
				Message: fmt.Sprintf("unknown event '%s', must be one of: key, mouse_click, mouse_motion", ev),
			})
		}
	}

	// Store
	if !validBackends[c.Store.Backend] {
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Store.Backend),
		})
	}

	// UI
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light, mono", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - AURORA_API_URL: overrides api.base_url
//   - AURORA_IDLE_TIMEOUT: overrides session.idle_timeout_secs; seconds or a
//     Go duration such as "15m"
//   - AURORA_STORE_BACKEND: overrides store.backend
//
// AURORA_HOME is read by ConfigDir.
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("AURORA_API_URL"); u != "" {
		c.API.BaseURL = u
	}

	if v := os.Getenv("AURORA_IDLE_TIMEOUT"); v != "" {
		if secs, err := parseSeconds(v); err == nil {
			c.Session.IdleTimeoutSecs = secs
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring AURORA_IDLE_TIMEOUT=%q: %v\n", v, err)
		}
	}

	if backend := os.Getenv("AURORA_STORE_BACKEND"); backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
}

// parseSeconds accepts "900" or "15m".
func parseSeconds(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	return int(d / time.Second), nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe. A later
// Global returns cfg instead of loading from disk.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
