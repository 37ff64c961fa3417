// Package config loads taskhub configuration from YAML or TOML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all taskhub configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Pagination PaginationConfig `yaml:"pagination" toml:"pagination"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr" toml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// DatabaseConfig locates the two stores.
type DatabaseConfig struct {
	// ProjectsPath is the relational project database.
	ProjectsPath string `yaml:"projects_path" toml:"projects_path"`
	// TasksPath is the partitioned task record store.
	TasksPath string `yaml:"tasks_path" toml:"tasks_path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development" toml:"development"`
}

// PaginationConfig bounds project listing.
type PaginationConfig struct {
	DefaultPerPage int `yaml:"default_per_page" toml:"default_per_page"`
	MaxPerPage     int `yaml:"max_per_page" toml:"max_per_page"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "5s",
		},
		Database: DatabaseConfig{
			ProjectsPath: "data/projects.db",
			TasksPath:    "data/tasks.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Pagination: PaginationConfig{
			DefaultPerPage: 5,
			MaxPerPage:     100,
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		case strings.EqualFold(filepath.Ext(path), ".toml"):
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Environment variables that override file settings.
const (
	EnvAddr       = "TASKHUB_ADDR"
	EnvProjectsDB = "TASKHUB_PROJECTS_DB"
	EnvTasksDB    = "TASKHUB_TASKS_DB"
	EnvLogLevel   = "TASKHUB_LOG_LEVEL"
)

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = envOr(EnvAddr, c.Server.Addr)
	c.Database.ProjectsPath = envOr(EnvProjectsDB, c.Database.ProjectsPath)
	c.Database.TasksPath = envOr(EnvTasksDB, c.Database.TasksPath)
	c.Logging.Level = envOr(EnvLogLevel, c.Logging.Level)
}

// envOr returns the environment variable value or fallback when it is unset or empty.
func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetShutdownTimeout returns the graceful shutdown timeout, 5s when unparsable.
func (c *Config) GetShutdownTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.ProjectsPath == "" {
		return fmt.Errorf("database.projects_path is required")
	}
	if c.Database.TasksPath == "" {
		return fmt.Errorf("database.tasks_path is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if c.Server.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("server.shutdown_timeout: %w", err)
		}
	}
	if c.Pagination.DefaultPerPage < 1 || c.Pagination.MaxPerPage < 1 {
		return fmt.Errorf("pagination limits must be positive")
	}
	if c.Pagination.DefaultPerPage > c.Pagination.MaxPerPage {
		return fmt.Errorf("pagination.default_per_page %d exceeds max_per_page %d",
			c.Pagination.DefaultPerPage, c.Pagination.MaxPerPage)
	}
	return nil
}
