package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// SessionsDir overrides where session files are stored.
	// Empty means <baseDir>/sessions.
	SessionsDir string `json:"sessions_dir,omitempty"`

	// OpenTimeoutMS bounds how long a restore pass waits for launched
	// windows to appear.
	OpenTimeoutMS int `json:"open_timeout_ms"`

	// PollIntervalMS is the sleep between polling rounds during restore.
	PollIntervalMS int `json:"poll_interval_ms"`

	// DefaultRect is the [left, top, width, height] geometry assigned to
	// entries added without one. Must have exactly 4 elements to take effect.
	DefaultRect []int `json:"default_rect,omitempty"`

	// HistoryLimit is the default number of restore passes returned by history.
	HistoryLimit int `json:"history_limit,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenTimeoutMS:  2000,
		PollIntervalMS: 100,
		HistoryLimit:   50,
	}
}

// OpenTimeout returns the restore open timeout as a duration.
func (c *Config) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutMS) * time.Millisecond
}

// PollInterval returns the restore poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.exsess.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SessionsDir = overlay.SessionsDir
	if result.SessionsDir == "" {
		result.SessionsDir = base.SessionsDir
	}

	result.OpenTimeoutMS = overlay.OpenTimeoutMS
	if result.OpenTimeoutMS == 0 {
		result.OpenTimeoutMS = base.OpenTimeoutMS
	}

	result.PollIntervalMS = overlay.PollIntervalMS
	if result.PollIntervalMS == 0 {
		result.PollIntervalMS = base.PollIntervalMS
	}

	result.HistoryLimit = overlay.HistoryLimit
	if result.HistoryLimit == 0 {
		result.HistoryLimit = base.HistoryLimit
	}

	// DefaultRect is all-or-nothing: an overlay rect replaces the base rect.
	result.DefaultRect = overlay.DefaultRect
	if len(result.DefaultRect) == 0 {
		result.DefaultRect = base.DefaultRect
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
