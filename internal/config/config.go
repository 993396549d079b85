// Package config loads the YAML configuration: which events pages to harvest,
// where calendars are written and published, and when the watcher runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/econcal/econ-calendars/internal/logger"
	"github.com/econcal/econ-calendars/internal/schedule"
	"github.com/econcal/econ-calendars/internal/source"
)

const (
	DefaultPath         = "~/.config/econ-calendars/config.yaml"
	DefaultOutputDir    = "~/.local/share/econ-calendars/public"
	DefaultPublicURL    = "https://calendars.example.com/"
	DefaultSiteOrigin   = "https://economics.yale.edu"
	DefaultTimezone     = "America/New_York"
	DefaultFetchTimeout = 15 * time.Second
)

// Config is the top-level application configuration
type Config struct {
	// OutputDir receives one .ics file per source plus index.html
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// PublicURL is where OutputDir is served; subscription links are built from it
	PublicURL string `yaml:"public_url" json:"public_url"`

	// SiteOrigin is prefixed to site-relative links found in listings
	SiteOrigin string `yaml:"site_origin" json:"site_origin"`

	// Timezone is the IANA zone listing times are written in. It is also the
	// zone of RunTimes and of the index page's update time.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RunTimes are the daily "HH:MM" times at which watch harvests
	RunTimes []string `yaml:"run_times" json:"run_times"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	UserAgent    string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	LogLevel     string        `yaml:"log_level" json:"log_level"`

	// IndexTemplate optionally replaces the built-in index page template
	IndexTemplate string `yaml:"index_template,omitempty" json:"index_template,omitempty"`

	Sources []source.Source `yaml:"sources" json:"sources"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		PublicURL:    DefaultPublicURL,
		SiteOrigin:   DefaultSiteOrigin,
		Timezone:     DefaultTimezone,
		RunTimes:     []string{"06:00", "18:00"},
		FetchTimeout: DefaultFetchTimeout,
		LogLevel:     "info",
		Sources: []source.Source{
			{
				ID:   "yale-economics",
				Name: "Yale Economics Events",
				URL:  "https://economics.yale.edu/events",
			},
		},
	}
}

// Normalize fills in missing values with defaults so partial files still work
func (c *Config) Normalize() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.PublicURL == "" {
		c.PublicURL = DefaultPublicURL
	}
	if !strings.HasSuffix(c.PublicURL, "/") {
		c.PublicURL += "/"
	}
	if c.SiteOrigin == "" {
		c.SiteOrigin = DefaultSiteOrigin
	}
	c.SiteOrigin = strings.TrimSuffix(c.SiteOrigin, "/")
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if len(c.RunTimes) == 0 {
		c.RunTimes = []string{"06:00", "18:00"}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Sources == nil {
		c.Sources = []source.Source{}
	}
}

// Validate reports the first problem that would make a run fail
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, t := range c.RunTimes {
		if _, _, err := schedule.ParseTime(t); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		// each source needs its own output file
		name := strings.ToLower(src.FileName())
		if seen[name] {
			return fmt.Errorf("sources[%d]: duplicate output file %s", i, src.FileName())
		}
		seen[name] = true
	}
	return nil
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Source looks up a configured source by id or name
func (c *Config) Source(key string) (source.Source, bool) {
	for _, src := range c.Sources {
		if src.ID == key || src.Name == key || src.Key() == key {
			return src, true
		}
	}
	return source.Source{}, false
}

// ExpandPath expands a leading "~/" to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Load reads the YAML file at path. On first run, when the file does not
// exist, the defaults are written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// caller decides whether an unsaved default is acceptable
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return err
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

	tmp, err := os.CreateTemp(dir, ".econ-calendars-config-*.tmp")
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

// SaveTo is a convenience method delegating to Save
func (c *Config) SaveTo(path string) error {
	return Save(path, c)
}
