// Package config loads the YAML configuration shared by the daemons: which
// backend each store runs on, the retention policy, and the optional archive
// and notification endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"aircraft_db/internal/archive"
	"aircraft_db/internal/db"
)

// Config is the full configuration file.
type Config struct {
	BaseStation  DatabaseConfig  `yaml:"basestation"`
	TrackHistory DatabaseConfig  `yaml:"trackhistory"`
	Retention    RetentionConfig `yaml:"retention"`
	Archive      ArchiveConfig   `yaml:"archive"`
	Notify       NotifyConfig    `yaml:"notify"`
}

// DatabaseConfig selects and configures one store's backend.
type DatabaseConfig struct {
	Type string `yaml:"type"` // "sqlite" (default) or "postgres"

	// sqlite
	Path string `yaml:"path"`

	// postgres
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// MaxParams overrides the engine's bound-parameter ceiling, 0 keeps the
	// engine default.
	MaxParams int `yaml:"max_params"`

	WritesEnabled bool `yaml:"writes_enabled"`
}

// RetentionConfig controls the track-history retention daemon.
type RetentionConfig struct {
	// TruncateAfter is how old a history must be before it is compacted
	// down to its first and merged-last state.
	TruncateAfter time.Duration `yaml:"truncate_after"`

	// DeleteAfter is how old a history must be before it is removed
	// entirely (archived first when the archive is enabled).
	DeleteAfter time.Duration `yaml:"delete_after"`

	// Interval is how often the daemon runs a pass.
	Interval time.Duration `yaml:"interval"`
}

// UnmarshalYAML decodes the retention durations from "24h"-style strings.
func (r *RetentionConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TruncateAfter string `yaml:"truncate_after"`
		DeleteAfter   string `yaml:"delete_after"`
		Interval      string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	for _, f := range []struct {
		src string
		dst *time.Duration
	}{
		{raw.TruncateAfter, &r.TruncateAfter},
		{raw.DeleteAfter, &r.DeleteAfter},
		{raw.Interval, &r.Interval},
	} {
		if f.src == "" {
			continue
		}
		d, err := time.ParseDuration(f.src)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", f.src, err)
		}
		*f.dst = d
	}
	return nil
}

// ArchiveConfig configures the optional ClickHouse cold store.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// NotifyConfig configures the optional NATS change publisher.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes reads configuration from YAML bytes. Environment variables in
// the file are expanded before parsing.
func LoadBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for _, d := range []*DatabaseConfig{&c.BaseStation, &c.TrackHistory} {
		if d.Type == "" {
			d.Type = "sqlite"
		}
		if d.Type == "postgres" && d.Port == 0 {
			d.Port = 5432
		}
	}

	if c.Retention.TruncateAfter == 0 {
		c.Retention.TruncateAfter = 24 * time.Hour
	}
	if c.Retention.DeleteAfter == 0 {
		c.Retention.DeleteAfter = 14 * 24 * time.Hour
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = time.Hour
	}

	if c.Archive.Port == 0 {
		c.Archive.Port = 9000
	}
	if c.Notify.URL == "" {
		c.Notify.URL = "nats://localhost:4222"
	}
}

func (c *Config) validate() error {
	for name, d := range map[string]*DatabaseConfig{
		"basestation":  &c.BaseStation,
		"trackhistory": &c.TrackHistory,
	} {
		switch d.Type {
		case "sqlite":
			// An empty path is an in-memory database; nothing to check.
		case "postgres":
			if d.Host == "" || d.Database == "" {
				return fmt.Errorf("%s: postgres needs host and database", name)
			}
		default:
			return fmt.Errorf("%s: unknown database type %q", name, d.Type)
		}
	}

	if c.Retention.DeleteAfter < c.Retention.TruncateAfter {
		return fmt.Errorf("retention: delete_after (%s) must not precede truncate_after (%s)",
			c.Retention.DeleteAfter, c.Retention.TruncateAfter)
	}
	if c.Archive.Enabled && c.Archive.Host == "" {
		return fmt.Errorf("archive: enabled but no host")
	}
	return nil
}

// Adapter builds the backend adapter the database section describes.
func (d *DatabaseConfig) Adapter() db.Adapter {
	if d.Type == "postgres" {
		return &db.PostgresAdapter{
			Host:      d.Host,
			Port:      d.Port,
			Database:  d.Database,
			User:      d.User,
			Password:  d.Password,
			MaxParams: d.MaxParams,
		}
	}
	return &db.SQLiteAdapter{Path: d.Path, MaxParams: d.MaxParams}
}

// ClickHouse builds the archive connection settings.
func (a *ArchiveConfig) ClickHouse() archive.ClickHouseConfig {
	return archive.ClickHouseConfig{
		Host:     a.Host,
		Port:     a.Port,
		Database: a.Database,
		User:     a.User,
		Password: a.Password,
	}
}
