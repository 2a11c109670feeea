package authcore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/velvetlabs/authcore/password"
)

// otpManager generates and verifies short-lived one-time codes for a
// (email, purpose) key. Every failure path collapses to ErrInvalidOTP so
// callers cannot tell a missing record from an expired or exhausted one.
type otpManager struct {
	store  OTPStore
	hasher *password.Hasher
	config OTPConfig

	now func() time.Time
}

func newOTPManager(store OTPStore, hasher *password.Hasher, cfg OTPConfig) *otpManager {
	return &otpManager{
		store:  store,
		hasher: hasher,
		config: cfg,
		now:    time.Now,
	}
}

// Generate mints a fresh code and returns its plaintext exactly once, for
// out-of-band delivery. While a live record exists the key is in cooldown
// and generation fails with ErrRateLimited; an expired leftover is replaced.
func (m *otpManager) Generate(ctx context.Context, email string, purpose OTPPurpose) (string, error) {
	record, err := m.store.Find(ctx, email, purpose)
	if err != nil {
		return "", err
	}
	now := m.now()
	if record != nil {
		if now.Unix() < record.ExpiresAt {
			return "", ErrRateLimited
		}
		if err := m.store.Delete(ctx, email, purpose); err != nil {
			return "", err
		}
	}

	code, err := randomCode(m.config.Digits)
	if err != nil {
		return "", err
	}
	hash, err := m.hasher.Hash(code)
	if err != nil {
		return "", err
	}

	if err := m.store.Create(ctx, &OTPRecord{
		Email:          email,
		Purpose:        purpose,
		CodeHash:       hash,
		FailedAttempts: 0,
		CreatedAt:      now.Unix(),
		ExpiresAt:      now.Add(m.config.TTL).Unix(),
	}); err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks a presented code. A match deletes the record (codes are
// single-use); a mismatch increments the failure counter. Three strikes
// exhaust the record.
func (m *otpManager) Verify(ctx context.Context, email string, purpose OTPPurpose, code string) error {
	record, err := m.store.Find(ctx, email, purpose)
	if err != nil {
		return err
	}
	if record == nil ||
		m.now().Unix() > record.ExpiresAt ||
		record.FailedAttempts >= m.config.MaxFailedAttempts {
		return ErrInvalidOTP
	}

	ok, err := m.hasher.Compare(code, record.CodeHash)
	if err != nil {
		return err
	}
	if !ok {
		if err := m.store.IncrementAttempts(ctx, email, purpose); err != nil {
			return err
		}
		return ErrInvalidOTP
	}

	return m.store.Delete(ctx, email, purpose)
}

// randomCode returns a uniformly random numeric code of the given length,
// zero-padded.
func randomCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
