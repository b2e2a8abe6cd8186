// Package config loads process configuration for the goSession binaries: a YAML
// file followed by environment overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"gopkg.in/yaml.v3"
)

// Environment variables understood by Load. The names match the deployment
// variables of the existing service.
const (
	EnvJWTSecret        = "JWT_SECRET_KEY"
	EnvRedisHost        = "REDIS_HOST"
	EnvRedisPort        = "REDIS_PORT"
	EnvDatabaseURL      = "DATABASE_URL"
	EnvAccessTTLSeconds = "ACCESS_TOKEN_EXPIRE_IN_SECONDS"
	EnvRefreshTTLDays   = "REFRESH_TOKEN_EXPIRE_IN_DAYS"
	EnvListenAddr       = "GOSESSION_ADDR"
	EnvLogLevel         = "GOSESSION_LOG_LEVEL"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Env    string `yaml:"env"`
	} `yaml:"log"`

	JWT struct {
		Secret           string `yaml:"secret"`
		Issuer           string `yaml:"issuer"`
		AccessTTLSeconds int    `yaml:"access_ttl_seconds"`
		RefreshTTLDays   int    `yaml:"refresh_ttl_days"`
	} `yaml:"jwt"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		DB       int    `yaml:"db"`
		Password string `yaml:"password"`
	} `yaml:"redis"`

	// Database.URL selects the identity store: a postgres:// URL uses Postgres,
	// anything else is treated as a SQLite DSN.
	Database struct {
		URL      string `yaml:"url"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"database"`

	Security struct {
		MaxLoginAttempts int           `yaml:"max_login_attempts"`
		LoginCooldown    time.Duration `yaml:"login_cooldown"`
		IPThrottle       bool          `yaml:"ip_throttle"`
	} `yaml:"security"`

	Audit struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"audit"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load reads the YAML file at path, fills defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Env == "" {
		c.Log.Env = "prod"
	}
	if c.JWT.AccessTTLSeconds == 0 {
		c.JWT.AccessTTLSeconds = 15 * 60
	}
	if c.JWT.RefreshTTLDays == 0 {
		c.JWT.RefreshTTLDays = 30
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Database.URL == "" {
		c.Database.URL = "file:gosession.db"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Security.MaxLoginAttempts == 0 {
		c.Security.MaxLoginAttempts = 5
	}
	if c.Security.LoginCooldown == 0 {
		c.Security.LoginCooldown = 15 * time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (c *Config) applyEnv() {
	c.Server.Addr = EnvString(EnvListenAddr, c.Server.Addr)
	c.Log.Level = EnvString(EnvLogLevel, c.Log.Level)
	c.JWT.Secret = EnvString(EnvJWTSecret, c.JWT.Secret)
	c.JWT.AccessTTLSeconds = EnvInt(EnvAccessTTLSeconds, c.JWT.AccessTTLSeconds)
	c.JWT.RefreshTTLDays = EnvInt(EnvRefreshTTLDays, c.JWT.RefreshTTLDays)
	c.Redis.Host = EnvString(EnvRedisHost, c.Redis.Host)
	c.Redis.Port = EnvInt(EnvRedisPort, c.Redis.Port)
	c.Database.URL = EnvString(EnvDatabaseURL, c.Database.URL)
}

// Validate checks the fields the binaries cannot start without. Engine-level
// rules are enforced again by goSession's own validation at build time.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (set %s)", EnvJWTSecret)
	}
	if c.JWT.AccessTTLSeconds <= 0 || c.JWT.RefreshTTLDays <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port %d", c.Redis.Port)
	}
	return nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

// IsPostgres reports whether Database.URL points at Postgres.
func (c *Config) IsPostgres() bool {
	u := c.Database.URL
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// Engine converts the process configuration into an engine configuration.
func (c *Config) Engine() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWT.Secret)
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.AccessTTL = time.Duration(c.JWT.AccessTTLSeconds) * time.Second
	cfg.JWT.RefreshTTL = time.Duration(c.JWT.RefreshTTLDays) * 24 * time.Hour
	cfg.Security.MaxLoginAttempts = c.Security.MaxLoginAttempts
	cfg.Security.LoginCooldown = c.Security.LoginCooldown
	cfg.Security.EnableIPThrottle = c.Security.IPThrottle
	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Enabled
	return cfg
}
