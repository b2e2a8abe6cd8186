package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/password"
)

// Config is the full engine configuration. Obtain defaults with [DefaultConfig],
// adjust fields and pass it to [Builder.WithConfig].
type Config struct {
	JWT      JWTConfig
	Redis    RedisConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	// Secret is the HS256 signing key shared by every process.
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Issuer is written to and required on every token when non-empty.
	Issuer string
}

// RedisConfig controls key layout of the Redis-backed stores.
type RedisConfig struct {
	RevocationPrefix string
	RegistryPrefix   string
	// RevocationTTL is how long a blacklist entry is retained. Zero selects
	// AccessTTL plus one minute; a non-zero value must be at least AccessTTL.
	RevocationTTL time.Duration
}

// PasswordConfig holds argon2id parameters and the password length policy.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// SecurityConfig controls failed-login throttling.
type SecurityConfig struct {
	EnableLoginThrottle bool
	EnableIPThrottle    bool
	MaxLoginAttempts    int
	LoginCooldown       time.Duration
	ThrottlePrefix      string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 15 minute access tokens,
// 30 day refresh tokens and login throttling on. JWT.Secret must still be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			RevocationPrefix: "revoked",
			RegistryPrefix:   "refresh",
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
			MinLength:   password.DefaultMinPasswordBytes,
		},
		Security: SecurityConfig{
			EnableLoginThrottle: true,
			EnableIPThrottle:    true,
			MaxLoginAttempts:    5,
			LoginCooldown:       15 * time.Minute,
			ThrottlePrefix:      "ls",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// revocationTTL resolves the effective blacklist retention.
func (c *Config) revocationTTL() time.Duration {
	if c.Redis.RevocationTTL > 0 {
		return c.Redis.RevocationTTL
	}
	return c.JWT.AccessTTL + time.Minute
}

// Validate checks c for internal consistency.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must be set")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}

	// Redis
	if c.Redis.RevocationPrefix == "" || c.Redis.RegistryPrefix == "" {
		return errors.New("Redis prefixes must be set")
	}
	if c.Redis.RevocationPrefix == c.Redis.RegistryPrefix {
		return errors.New("Redis RevocationPrefix and RegistryPrefix must differ")
	}
	if c.Redis.RevocationTTL < 0 {
		return errors.New("Redis RevocationTTL must be >= 0")
	}
	if c.Redis.RevocationTTL > 0 && c.Redis.RevocationTTL < c.JWT.AccessTTL {
		return errors.New("Redis RevocationTTL must be >= JWT AccessTTL")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldown <= 0 {
			return errors.New("Security LoginCooldown must be > 0 when login throttle is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
