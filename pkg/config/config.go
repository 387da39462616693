// Package config handles loading and saving guidepost configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/guidepost/config.yaml
//   - Data:    ~/.local/share/guidepost/ (progress database)
//   - State:   ~/.local/state/guidepost/ (debug log)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

const appName = "guidepost"

// Environment overrides, applied after the file is read.
const (
	EnvCatalog = "GUIDEPOST_CATALOG"
	EnvDB      = "GUIDEPOST_DB"
)

// TourConfig controls tour timing and geometry.
type TourConfig struct {
	AutoStart         bool          `yaml:"auto_start"`
	AutoStartDelay    time.Duration `yaml:"auto_start_delay,omitempty"`
	ScrollSettleDelay time.Duration `yaml:"scroll_settle_delay,omitempty"`
	Units             string        `yaml:"units,omitempty"` // cells, pixels

	// Geometry overrides. Zero keeps the unit preset.
	TooltipWidth  int `yaml:"tooltip_width,omitempty"`
	TooltipHeight int `yaml:"tooltip_height,omitempty"`
	ArrowSize     int `yaml:"arrow_size,omitempty"`
	Padding       int `yaml:"padding,omitempty"`
	Margin        int `yaml:"margin,omitempty"`
}

// CatalogConfig locates tip catalogs.
type CatalogConfig struct {
	Path  string `yaml:"path,omitempty"` // file or directory; empty uses the built-in catalog
	Watch bool   `yaml:"watch"`
}

// StoreConfig locates the progress database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// UIConfig holds overlay preferences.
type UIConfig struct {
	Theme    string `yaml:"theme,omitempty"` // dark, light
	Backdrop bool   `yaml:"backdrop"`
}

// Config is the top-level configuration for guidepost.
type Config struct {
	Tour    TourConfig    `yaml:"tour"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tour: TourConfig{
			AutoStart:         true,
			AutoStartDelay:    tour.DefaultAutoStartDelay,
			ScrollSettleDelay: tour.DefaultScrollSettle,
			Units:             "cells",
		},
		Catalog: CatalogConfig{Watch: true},
		UI: UIConfig{
			Theme:    "dark",
			Backdrop: true,
		},
	}
}

// ConfigDir returns the XDG config directory for guidepost.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for guidepost.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for guidepost.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DebugLogPath returns where the TUI writes debug output.
func DebugLogPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "debug.log")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Catalog.Path = expandHome(cfg.Catalog.Path)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog.Path = expandHome(v)
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Store.Path = expandHome(v)
	}
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Tour.Units) {
	case "", "cells", "pixels":
	default:
		return fmt.Errorf("invalid config: tour.units %q (want cells or pixels)", c.Tour.Units)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "", "dark", "light":
	default:
		return fmt.Errorf("invalid config: ui.theme %q (want dark or light)", c.UI.Theme)
	}
	if c.Tour.AutoStartDelay < 0 || c.Tour.ScrollSettleDelay < 0 {
		return fmt.Errorf("invalid config: tour delays must not be negative")
	}
	for name, v := range map[string]int{
		"tooltip_width": c.Tour.TooltipWidth, "tooltip_height": c.Tour.TooltipHeight,
		"arrow_size": c.Tour.ArrowSize, "padding": c.Tour.Padding, "margin": c.Tour.Margin,
	} {
		if v < 0 {
			return fmt.Errorf("invalid config: tour.%s must not be negative", name)
		}
	}
	return nil
}

// Metrics returns the placement metrics for the configured units with
// any overrides applied.
func (c Config) Metrics() tour.Metrics {
	m := tour.CellMetrics
	if strings.EqualFold(c.Tour.Units, "pixels") {
		m = tour.PixelMetrics
	}
	if c.Tour.TooltipWidth > 0 {
		m.TooltipWidth = c.Tour.TooltipWidth
	}
	if c.Tour.TooltipHeight > 0 {
		m.TooltipHeight = c.Tour.TooltipHeight
	}
	if c.Tour.ArrowSize > 0 {
		m.ArrowSize = c.Tour.ArrowSize
	}
	if c.Tour.Padding > 0 {
		m.Padding = c.Tour.Padding
	}
	if c.Tour.Margin > 0 {
		m.Margin = c.Tour.Margin
	}
	return m
}

// StorePath returns the configured progress database path, defaulting to
// the XDG data directory.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "progress.db")
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
