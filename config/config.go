package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config holds runtime configuration for the viewer. It is read once at
// startup; the application never writes it back.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	// Device is the uri connected at startup. Empty selects the first
	// discovered device.
	Device    string `json:"device"`
	AutoStart bool   `json:"auto_start"`
	ScreenFPS int    `json:"screen_fps"`

	// WatchMs is the device rescan interval; 0 disables hotplug detection.
	WatchMs int `json:"watch_ms"`

	// UI
	TickMs         int    `json:"tick_ms"`
	PreviewMaxW    int    `json:"preview_max_w"`
	PreviewMaxH    int    `json:"preview_max_h"`
	LogCapacity    int    `json:"log_capacity"`
	LogLevelFilter string `json:"log_level_filter"`
	DarkMode       bool   `json:"dark_mode"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		LogLevel:       "info",
		Device:         "",
		AutoStart:      true,
		ScreenFPS:      10,
		WatchMs:        2000,
		TickMs:         33,
		PreviewMaxW:    960,
		PreviewMaxH:    540,
		LogCapacity:    500,
		LogLevelFilter: "info",
	}
}

// Validate clamps/normalizes values to safe ranges. Unknown level names fall
// back to info.
func (c *Config) Validate() error {
	c.LogLevel = normalizeLevel(c.LogLevel)
	c.LogLevelFilter = normalizeFilter(c.LogLevelFilter)
	c.Device = strings.TrimSpace(c.Device)
	if c.ScreenFPS <= 0 {
		c.ScreenFPS = 10
	}
	if c.ScreenFPS > 60 {
		c.ScreenFPS = 60
	}
	if c.WatchMs < 0 {
		c.WatchMs = 0
	}
	if c.WatchMs > 0 && c.WatchMs < 250 {
		c.WatchMs = 250
	}
	if c.TickMs < 5 {
		c.TickMs = 5
	}
	if c.TickMs > 1000 {
		c.TickMs = 1000
	}
	if c.PreviewMaxW <= 0 {
		c.PreviewMaxW = 960
	}
	if c.PreviewMaxH <= 0 {
		c.PreviewMaxH = 540
	}
	if c.LogCapacity < 10 {
		c.LogCapacity = 10
	}
	return nil
}

func normalizeLevel(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "debug", "info", "warn", "error":
		return s
	}
	return "info"
}

func normalizeFilter(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "error", "warn", "info", "verbose":
		return s
	}
	return "info"
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch normalizeLevel(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("decode %s: %w", path, err)
	}
	_ = cfg.Validate()
	return cfg, nil
}
