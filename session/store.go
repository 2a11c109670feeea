package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps backend failures so callers can separate outages
// from a clean miss.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store is the persistence capability the manager runs on. Find and Delete
// take a [Filter]; Find returns (nil, nil) on a clean miss.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Find(ctx context.Context, f Filter) (*Session, error)
	Delete(ctx context.Context, f Filter) error
}

// RedisStore keeps session records in Redis with a TTL matching the session
// expiry, plus a per-user index key so lookups by owner need no scan.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore. prefix namespaces the keys; it
// defaults to "acs".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "acs"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// Create persists the session. The record and its user index share the
// session's remaining lifetime as TTL, so expired sessions vanish without a
// sweeper.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	ttl := time.Until(time.Unix(sess.ExpiresAt, 0))
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", ErrStoreUnavailable)
	}

	encoded, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.redis.Set(ctx, s.userKey(sess.UserID), sess.SessionID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Find resolves the filter to at most one session. Filters carrying only a
// user ID go through the user index.
func (s *RedisStore) Find(ctx context.Context, f Filter) (*Session, error) {
	sessionID := f.SessionID
	if sessionID == "" {
		if f.UserID == "" {
			return nil, nil
		}
		id, err := s.redis.Get(ctx, s.userKey(f.UserID)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		sessionID = id
	}

	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: corrupt session record", ErrStoreUnavailable)
	}
	if !f.Matches(&sess) {
		return nil, nil
	}
	return &sess, nil
}

// Delete removes the matching session and its user index entry. Deleting a
// session that does not exist is not an error.
func (s *RedisStore) Delete(ctx context.Context, f Filter) error {
	sess, err := s.Find(ctx, f)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if err := s.redis.Del(ctx, s.key(sess.SessionID), s.userKey(sess.UserID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
