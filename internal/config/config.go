package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pshenley/hollow/internal/classify"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScanConfig holds the default scan policy. Per-request values may override
// root_path, leaf_only, and include_valid.
type ScanConfig struct {
	RootPath           string   `yaml:"root_path"`
	ContentExtensions  []string `yaml:"content_extensions"`
	MetadataExtensions []string `yaml:"metadata_extensions"`
	IgnoreFiles        []string `yaml:"ignore_files"`
	LeafOnly           bool     `yaml:"leaf_only"`
	IncludeValid       *bool    `yaml:"include_valid"`
	Inaccessible       string   `yaml:"inaccessible"` // "skip" or "record"
}

// HistoryConfig holds scan history retention settings.
type HistoryConfig struct {
	RetentionCount int `yaml:"retention_count"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			BasePath: "/",
		},
		Database: DatabaseConfig{
			Path: "/data/hollow.db",
		},
		Scan: ScanConfig{
			RootPath:     "/ingest",
			Inaccessible: string(classify.RecordInaccessible),
		},
		History: HistoryConfig{
			RetentionCount: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("HW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("HW_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("HW_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("HW_ROOT_PATH"); v != "" {
		c.Scan.RootPath = v
	}
	if v := os.Getenv("HW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Scan.RootPath == "" {
		return fmt.Errorf("scan root path is required")
	}
	switch classify.InaccessiblePolicy(c.Scan.Inaccessible) {
	case classify.SkipInaccessible, classify.RecordInaccessible:
	default:
		return fmt.Errorf("scan.inaccessible must be %q or %q",
			classify.SkipInaccessible, classify.RecordInaccessible)
	}
	if c.History.RetentionCount < 1 {
		return fmt.Errorf("history retention count must be at least 1")
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}

// Options converts the scan section into classifier options.
func (s ScanConfig) Options() classify.Options {
	opts := classify.DefaultOptions()
	if s.ContentExtensions != nil {
		opts.ContentExtensions = s.ContentExtensions
	}
	if s.MetadataExtensions != nil {
		opts.MetadataExtensions = s.MetadataExtensions
	}
	if s.IgnoreFiles != nil {
		opts.IgnoreFiles = s.IgnoreFiles
	}
	opts.LeafOnly = s.LeafOnly
	if s.IncludeValid != nil {
		opts.IncludeValid = *s.IncludeValid
	}
	opts.Inaccessible = classify.InaccessiblePolicy(s.Inaccessible)
	return opts
}
