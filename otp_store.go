package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPStoreUnavailable wraps backend failures of the OTP store.
var ErrOTPStoreUnavailable = errors.New("otp store unavailable")

// RedisOTPStore is the default [OTPStore]: one Redis hash per
// (email, purpose) key, expiring with the record so stale codes vanish on
// their own. The attempt counter is incremented server-side.
type RedisOTPStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisOTPStore creates a RedisOTPStore. prefix defaults to "aco".
func NewRedisOTPStore(client redis.UniversalClient, prefix string) *RedisOTPStore {
	if prefix == "" {
		prefix = "aco"
	}
	return &RedisOTPStore{redis: client, prefix: prefix}
}

func (s *RedisOTPStore) key(email string, purpose OTPPurpose) string {
	return s.prefix + ":" + string(purpose) + ":" + email
}

// Find returns the record for the key, or (nil, nil) when none exists.
func (s *RedisOTPStore) Find(ctx context.Context, email string, purpose OTPPurpose) (*OTPRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(email, purpose)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &OTPRecord{
		Email:    email,
		Purpose:  purpose,
		CodeHash: fields["code_hash"],
	}
	if record.FailedAttempts, err = strconv.Atoi(fields["failed_attempts"]); err != nil {
		return nil, fmt.Errorf("%w: corrupt otp record", ErrOTPStoreUnavailable)
	}
	if record.CreatedAt, err = strconv.ParseInt(fields["created_at"], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: corrupt otp record", ErrOTPStoreUnavailable)
	}
	if record.ExpiresAt, err = strconv.ParseInt(fields["expires_at"], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: corrupt otp record", ErrOTPStoreUnavailable)
	}
	return record, nil
}

// Create persists the record with a TTL matching its expiry.
func (s *RedisOTPStore) Create(ctx context.Context, record *OTPRecord) error {
	ttl := time.Until(time.Unix(record.ExpiresAt, 0))
	if ttl <= 0 {
		return fmt.Errorf("%w: record already expired", ErrOTPStoreUnavailable)
	}

	key := s.key(record.Email, record.Purpose)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key,
		"code_hash", record.CodeHash,
		"failed_attempts", record.FailedAttempts,
		"created_at", record.CreatedAt,
		"expires_at", record.ExpiresAt,
	)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return nil
}

// IncrementAttempts bumps the failure counter atomically. The key TTL is
// left untouched, so failed guesses never extend a code's life.
func (s *RedisOTPStore) IncrementAttempts(ctx context.Context, email string, purpose OTPPurpose) error {
	if err := s.redis.HIncrBy(ctx, s.key(email, purpose), "failed_attempts", 1).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return nil
}

// Delete removes the record. Deleting an absent key is not an error.
func (s *RedisOTPStore) Delete(ctx context.Context, email string, purpose OTPPurpose) error {
	if err := s.redis.Del(ctx, s.key(email, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return nil
}
