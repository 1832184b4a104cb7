// Package config loads server settings from defaults, an optional YAML
// file and CHOREBOARD_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable that points at a YAML config file.
const FileEnv = "CHOREBOARD_CONFIG"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Session     SessionConfig     `yaml:"session"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	// Timezone is the IANA zone that defines calendar days for streaks and
	// leaderboard windows. Empty means the server's local zone.
	Timezone string `yaml:"timezone"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LeaderboardConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Parallelism     int           `yaml:"parallelism"`
}

func Default() *Config {
	return &Config{
		Server:      ServerConfig{Port: 8080},
		Database:    DatabaseConfig{Path: "choreboard.db"},
		Log:         LogConfig{Level: "info", Format: "text"},
		Session:     SessionConfig{TTL: 30 * 24 * time.Hour},
		Leaderboard: LeaderboardConfig{RefreshInterval: 5 * time.Minute, Parallelism: 4},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first if present. configFile overrides
// CHOREBOARD_CONFIG when non-empty.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()

	if configFile == "" {
		configFile = os.Getenv(FileEnv)
	}
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	var errs []error
	envString(&c.Database.Path, "CHOREBOARD_DB_PATH")
	envString(&c.Log.Level, "CHOREBOARD_LOG_LEVEL")
	envString(&c.Log.Format, "CHOREBOARD_LOG_FORMAT")
	envString(&c.Timezone, "CHOREBOARD_TIMEZONE")
	errs = append(errs,
		envInt(&c.Server.Port, "CHOREBOARD_PORT"),
		envInt(&c.Leaderboard.Parallelism, "CHOREBOARD_LEADERBOARD_PARALLELISM"),
		envDuration(&c.Session.TTL, "CHOREBOARD_SESSION_TTL"),
		envDuration(&c.Leaderboard.RefreshInterval, "CHOREBOARD_LEADERBOARD_REFRESH"),
	)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Leaderboard.RefreshInterval <= 0 {
		errs = append(errs, errors.New("leaderboard.refresh_interval must be positive"))
	}
	if c.Leaderboard.Parallelism < 1 {
		errs = append(errs, errors.New("leaderboard.parallelism must be at least 1"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Location returns the zone that defines calendar days.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
