package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarConfig describes the remote calendar to pull events from.
type CalendarConfig struct {
	// URL is either a CalDAV server base URL or a direct ICS feed URL
	// (http(s) ending in .ics, or webcal://).
	URL string `yaml:"url" json:"url"`
	// Name selects the calendar by display name on a CalDAV server.
	// Ignored for ICS feeds.
	Name string `yaml:"name" json:"name"`
	// Username for HTTP basic auth. The password is never stored in the
	// config file; it is read from the WOCHENPLAN_PASSWORD environment
	// variable (a .env file is honored).
	Username string `yaml:"username" json:"username"`
}

// Config is the top-level application configuration.
type Config struct {
	// Calendar is the remote event source.
	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// Timezone is the IANA timezone events are displayed in (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale controls weekday names in the page header, as a BCP 47 tag
	// (e.g. "de_DE", "en_US").
	Locale string `yaml:"locale" json:"locale"`

	// SlotMinutes is the base grid granularity in minutes, between 1 and
	// MaxSlotMinutes. Out-of-range values fall back to the default.
	SlotMinutes int `yaml:"slot_minutes" json:"slot_minutes"`

	// Year and Week select the first ISO week to print; Weeks is how many
	// consecutive weeks get their own page. Zero Year/Week means the
	// current week.
	Year  int `yaml:"year" json:"year"`
	Week  int `yaml:"week" json:"week"`
	Weeks int `yaml:"weeks" json:"weeks"`

	// OutputDir is where generated documents are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Prefix is the output filename prefix: {prefix}_{first}_{last}.pdf.
	Prefix string `yaml:"prefix" json:"prefix"`

	// RefreshCron re-generates the documents on this cron schedule in
	// watch mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen is the preview HTTP listen address used in watch mode.
	Listen string `yaml:"listen" json:"listen"`

	// FeedCacheDir holds the HTTP cache for ICS feed sources.
	FeedCacheDir string `yaml:"feed_cache_dir" json:"feed_cache_dir"`
}

// MaxSlotMinutes bounds the grid granularity. At 30 minutes the morning
// block of the late-start grid reaches the fixed 12:00 lunch slot and
// the slot times would no longer be strictly increasing.
const MaxSlotMinutes = 25

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:     "Europe/Berlin",
		Locale:       "de_DE",
		SlotMinutes:  20,
		Weeks:        4,
		OutputDir:    "./out",
		Prefix:       "wochenplan",
		RefreshCron:  "0 6 * * 1",
		Listen:       "127.0.0.1:8080",
		FeedCacheDir: "./var/feed-cache",
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes > MaxSlotMinutes {
		c.SlotMinutes = def.SlotMinutes
	}
	if c.Weeks <= 0 {
		c.Weeks = def.Weeks
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.FeedCacheDir == "" {
		c.FeedCacheDir = def.FeedCacheDir
	}
}

// SlotDuration returns the configured grid granularity.
func (c *Config) SlotDuration() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// Load loads configuration from the given YAML path. A missing file is
// created with defaults (0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".wochenplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
