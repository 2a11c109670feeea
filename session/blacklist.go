package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistMarker = "1"

// Blacklist records revoked session identifiers in an ephemeral key-value
// store. Entries carry a bounded TTL: access tokens expire within the hour
// anyway, so the blacklist only needs to outlive a stolen refresh token's
// ability to mint new access tokens right after sign-out. Transient loss is
// tolerable; the worst case is a revoked token honored until natural expiry.
type Blacklist struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewBlacklist creates a Blacklist with the given entry TTL. prefix
// defaults to "acb".
func NewBlacklist(client redis.UniversalClient, prefix string, ttl time.Duration) *Blacklist {
	if prefix == "" {
		prefix = "acb"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Blacklist{redis: client, prefix: prefix, ttl: ttl}
}

func (b *Blacklist) key(sessionID string) string {
	return b.prefix + ":" + sessionID
}

// Add marks the session as revoked for the configured TTL.
func (b *Blacklist) Add(ctx context.Context, sessionID string) error {
	if err := b.redis.Set(ctx, b.key(sessionID), blacklistMarker, b.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Contains reports whether the session is currently revoked.
func (b *Blacklist) Contains(ctx context.Context, sessionID string) (bool, error) {
	value, err := b.redis.Get(ctx, b.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value == blacklistMarker, nil
}
