// Package config loads and saves the tbxusage configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/model"
)

// ErrInvalidFilter is returned when a filter window is incomplete or empty.
var ErrInvalidFilter = errors.New("invalid time filter")

// Config holds all tbxusage configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Filter     FilterConfig     `toml:"filter"`
	Logging    LoggingConfig    `toml:"logging"`
	Server     ServerConfig     `toml:"server"`
	Cache      CacheConfig      `toml:"cache"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds input and output preferences.
type GeneralConfig struct {
	DateFormat string   `toml:"date_format"`
	OutputDir  string   `toml:"output_dir,omitempty"`
	OutputFile string   `toml:"output_file,omitempty"`
	Format     string   `toml:"format"`
	Extensions []string `toml:"extensions"`
}

// FilterConfig is the optional time window. Start and End are written in
// the general date format.
type FilterConfig struct {
	Enabled bool   `toml:"enabled"`
	Start   string `toml:"start,omitempty"`
	End     string `toml:"end,omitempty"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig toggles the sqlite report cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DateFormat: datefmt.Default,
			Format:     "text",
			Extensions: []string{".csv", ".log", ".txt"},
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: "127.0.0.1:8765"},
		Cache:   CacheConfig{Enabled: true},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tbxusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tbxusage")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	return LoadPath(ConfigPath())
}

// LoadPath is Load for a config file at path.
func LoadPath(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads a specific config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TBXUSAGE_DATE_FORMAT"); v != "" {
		c.General.DateFormat = v
	}
	if v := os.Getenv("TBXUSAGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TBXUSAGE_OUTPUT_DIR"); v != "" {
		c.General.OutputDir = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // config dir is user-owned
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// SetTimeFilter enables the window [start, end], validating both bounds
// against the configured date format.
func (c *Config) SetTimeFilter(start, end string) error {
	f := FilterConfig{Enabled: true, Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
	if _, err := parseWindow(c.General.DateFormat, f); err != nil {
		return err
	}
	c.Filter = f
	return nil
}

// ClearTimeFilter disables the window.
func (c *Config) ClearTimeFilter() {
	c.Filter = FilterConfig{}
}

// TimeFilter returns the configured window, or nil when filtering is off.
func (c Config) TimeFilter() (*model.TimeFilter, error) {
	if !c.Filter.Enabled {
		return nil, nil
	}
	return parseWindow(c.General.DateFormat, c.Filter)
}

// ParseWindow parses a window whose bounds are written in format.
func ParseWindow(format, start, end string) (*model.TimeFilter, error) {
	return parseWindow(format, FilterConfig{Enabled: true, Start: strings.TrimSpace(start), End: strings.TrimSpace(end)})
}

func parseWindow(format string, f FilterConfig) (*model.TimeFilter, error) {
	if f.Start == "" || f.End == "" {
		return nil, fmt.Errorf("%w: both start and end are required", ErrInvalidFilter)
	}
	start, err := datefmt.Parse(format, f.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %w", ErrInvalidFilter, err)
	}
	end, err := datefmt.Parse(format, f.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end: %w", ErrInvalidFilter, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidFilter, f.End, f.Start)
	}
	return &model.TimeFilter{Start: start, End: end}, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	if err := datefmt.Validate(c.General.DateFormat); err != nil {
		return err
	}
	if _, err := c.TimeFilter(); err != nil {
		return err
	}
	return nil
}
