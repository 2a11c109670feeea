package authcore

import (
	"errors"
	"time"
)

// Config is the engine configuration. It is copied by the builder and
// immutable afterward; business logic never reads ambient globals.
type Config struct {
	// AppName labels TOTP provisioning URIs and outbound mail.
	AppName string

	Token    TokenConfig
	Password PasswordConfig
	OTP      OTPConfig
	MFA      MFAConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig carries key material and lifetimes. PrivateKey/PublicKey are
// the Ed25519 pair for access and refresh tokens (raw or PEM); MFASecret is
// the separate symmetric secret for MFA challenge tokens.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	MFATTL     time.Duration

	PrivateKey []byte
	PublicKey  []byte
	MFASecret  []byte

	Issuer string
	Leeway time.Duration
}

// PasswordConfig sets the argon2id cost parameters and the sticky lockout
// threshold.
type PasswordConfig struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MaxFailedAttempts int
}

// OTPConfig governs one-time codes for email verification and password
// reset.
type OTPConfig struct {
	TTL               time.Duration
	Digits            int
	MaxFailedAttempts int
	RedisPrefix       string
}

// MFAConfig governs TOTP verification and the timed MFA lockout.
type MFAConfig struct {
	MaxFailedAttempts int
	LockDuration      time.Duration

	Period uint
	Skew   uint
	Digits int
}

// SessionConfig governs session lifetime and the revocation blacklist.
type SessionConfig struct {
	TTL          time.Duration
	BlacklistTTL time.Duration

	RedisPrefix     string
	BlacklistPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the contract defaults: 1h access, 1w refresh,
// 3m MFA challenge, 5m OTP, 7d sessions, 1h blacklist, three-strike
// lockouts, 15m MFA lock.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		AppName: "authcore",
		Token: TokenConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			MFATTL:     3 * time.Minute,
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:            64 * 1024,
			Time:              2,
			Parallelism:       2,
			SaltLength:        16,
			KeyLength:         32,
			MaxFailedAttempts: 3,
		},
		OTP: OTPConfig{
			TTL:               5 * time.Minute,
			Digits:            6,
			MaxFailedAttempts: 3,
			RedisPrefix:       "aco",
		},
		MFA: MFAConfig{
			MaxFailedAttempts: 3,
			LockDuration:      15 * time.Minute,
			Period:            30,
			Skew:              1,
			Digits:            6,
		},
		Session: SessionConfig{
			TTL:             7 * 24 * time.Hour,
			BlacklistTTL:    time.Hour,
			RedisPrefix:     "acs",
			BlacklistPrefix: "acb",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	out.Token.MFASecret = append([]byte(nil), cfg.Token.MFASecret...)
	return out
}

// Validate checks the parts of the configuration the builder cannot default
// its way around.
func (c Config) Validate() error {
	if c.AppName == "" {
		return errors.New("AppName required")
	}
	if len(c.Token.PublicKey) == 0 {
		return errors.New("Token.PublicKey required")
	}
	if len(c.Token.MFASecret) < 32 {
		return errors.New("Token.MFASecret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 || c.Token.MFATTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token.RefreshTTL must not be shorter than AccessTTL")
	}
	if c.OTP.TTL <= 0 || c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("invalid OTP configuration")
	}
	if c.OTP.MaxFailedAttempts <= 0 || c.Password.MaxFailedAttempts <= 0 || c.MFA.MaxFailedAttempts <= 0 {
		return errors.New("attempt limits must be positive")
	}
	if c.MFA.LockDuration <= 0 || c.MFA.Period == 0 || c.MFA.Digits < 6 {
		return errors.New("invalid MFA configuration")
	}
	if c.Session.TTL <= 0 || c.Session.BlacklistTTL <= 0 {
		return errors.New("session TTLs must be positive")
	}
	return nil
}
