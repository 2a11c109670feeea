package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/velvetlabs/authcore/internal/audit"
	"github.com/velvetlabs/authcore/password"
	"github.com/velvetlabs/authcore/session"
	"github.com/velvetlabs/authcore/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires defaults: Redis-backed
// session and OTP stores unless alternatives are supplied.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore    UserStore
	sessionStore session.Store
	otpStore     OTPStore
	mailer       Mailer
	auditSink    AuditSink
	logger       *slog.Logger

	built bool
}

// New creates a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the blacklist and the default
// session and OTP stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user persistence capability. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithSessionStore overrides the default Redis session store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithOTPStore overrides the default Redis OTP store.
func (b *Builder) WithOTPStore(store OTPStore) *Builder {
	b.otpStore = store
	return b
}

// WithMailer sets the outbound mail capability. Without one, code delivery
// is skipped and logged.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates and assembles the engine. A Builder builds once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userStore == nil {
		return nil, errors.New("user store required")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		MFATTL:     cfg.Token.MFATTL,
		PrivateKey: cfg.Token.PrivateKey,
		PublicKey:  cfg.Token.PublicKey,
		MFASecret:  cfg.Token.MFASecret,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	sessionStore := b.sessionStore
	if sessionStore == nil {
		sessionStore = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}
	blacklist := session.NewBlacklist(b.redis, cfg.Session.BlacklistPrefix, cfg.Session.BlacklistTTL)
	sessions := session.NewManager(sessionStore, blacklist, cfg.Session.TTL)

	otpStore := b.otpStore
	if otpStore == nil {
		otpStore = NewRedisOTPStore(b.redis, cfg.OTP.RedisPrefix)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:   cfg,
		users:    b.userStore,
		sessions: sessions,
		otps:     newOTPManager(otpStore, hasher, cfg.OTP),
		totp:     newTOTPManager(cfg.MFA, cfg.AppName),
		tokens:   tokens,
		hasher:   hasher,
		mailer:   b.mailer,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     time.Now,
	}

	b.built = true
	return engine, nil
}
