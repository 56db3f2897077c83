// Package config loads the server settings. Values are layered: built-in
// defaults, then an optional YAML file, then a .env file, then environment
// variables. Command-line flags are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"taskboard/internal/storage"
	"taskboard/internal/util"
)

// Environment variables read by Load.
const (
	EnvAddr       = "TASKBOARD_ADDR"
	EnvDBDriver   = "TASKBOARD_DB_DRIVER"
	EnvDBDSN      = "TASKBOARD_DB_DSN"
	EnvExportDir  = "TASKBOARD_EXPORT_DIR"
	EnvLogLevel   = "TASKBOARD_LOG_LEVEL"
	EnvLogFormat  = "TASKBOARD_LOG_FORMAT"
	EnvRedisAddr  = "TASKBOARD_REDIS_ADDR"
	EnvCacheTTL   = "TASKBOARD_CACHE_TTL"
	EnvSentryDSN  = "TASKBOARD_SENTRY_DSN"
	defaultDotenv = ".env"
)

type Config struct {
	Addr      string         `yaml:"addr"`
	Database  DatabaseConfig `yaml:"database"`
	ExportDir string         `yaml:"export_dir"`
	Log       LogConfig      `yaml:"log"`
	Redis     RedisConfig    `yaml:"redis"`
	SentryDSN string         `yaml:"sentry_dsn"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RedisConfig enables the describe cache when Addr is set.
type RedisConfig struct {
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		Database: DatabaseConfig{
			Driver: storage.DriverSQLite,
			DSN:    "data/taskboard.db",
		},
		ExportDir: "out",
		Log:       LogConfig{Level: "info", Format: "text"},
		Redis:     RedisConfig{TTL: 5 * time.Minute},
	}
}

// Load builds the configuration. An empty path skips the YAML layer; a
// missing .env file is ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(defaultDotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", defaultDotenv, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Addr = util.EnvOrDefault(EnvAddr, c.Addr)
	c.Database.Driver = util.EnvOrDefault(EnvDBDriver, c.Database.Driver)
	c.Database.DSN = util.EnvOrDefault(EnvDBDSN, c.Database.DSN)
	c.ExportDir = util.EnvOrDefault(EnvExportDir, c.ExportDir)
	c.Log.Level = util.EnvOrDefault(EnvLogLevel, c.Log.Level)
	c.Log.Format = util.EnvOrDefault(EnvLogFormat, c.Log.Format)
	c.Redis.Addr = util.EnvOrDefault(EnvRedisAddr, c.Redis.Addr)
	c.SentryDSN = util.EnvOrDefault(EnvSentryDSN, c.SentryDSN)

	ttl, err := util.DurationOrDefault(EnvCacheTTL, c.Redis.TTL)
	if err != nil {
		return err
	}
	c.Redis.TTL = ttl
	return nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.Redis.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Redis.TTL)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}
