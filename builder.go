package goSession

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used for one successful
// Build only.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocations RevocationStore
	registry    RefreshRegistry
	identity    IdentityStore
	auditSink   AuditSink
	logger      *slog.Logger
	now         func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for the default revocation store, refresh
// registry and login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore overrides the Redis revocation store.
func (b *Builder) WithRevocationStore(s RevocationStore) *Builder {
	b.revocations = s
	return b
}

// WithRefreshRegistry overrides the Redis refresh registry.
func (b *Builder) WithRefreshRegistry(r RefreshRegistry) *Builder {
	b.registry = r
	return b
}

func (b *Builder) WithIdentityStore(s IdentityStore) *Builder {
	b.identity = s
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger used for best-effort failures. Defaults to
// slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for expiry evaluation and token timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identity == nil {
		return nil, errors.New("identity store required")
	}
	if b.redis == nil {
		if b.revocations == nil || b.registry == nil {
			return nil, errors.New("redis client required")
		}
		if cfg.Security.EnableLoginThrottle {
			return nil, errors.New("login throttle requires redis client")
		}
	}

	// -------- TOKEN STORES --------
	revocations := b.revocations
	if revocations == nil {
		revocations = session.NewRevocationStore(b.redis, cfg.Redis.RevocationPrefix, cfg.revocationTTL())
	}
	registry := b.registry
	if registry == nil {
		registry = session.NewRefreshRegistry(b.redis, cfg.Redis.RegistryPrefix, cfg.JWT.RefreshTTL)
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret: cloneBytes(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MinPasswordBytes: cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.DummyHash()
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		codec:       codec,
		revocations: revocations,
		registry:    registry,
		identity:    b.identity,
		hasher:      hasher,
		dummyHash:   dummyHash,
		logger:      logger.With("component", "goSession"),
		clock:       now,
	}

	if cfg.Security.EnableLoginThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Security.ThrottlePrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LoginCooldown:    cfg.Security.LoginCooldown,
		})
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     engine.logger,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}
