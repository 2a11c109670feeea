package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Manager allocates, looks up, deletes and blacklists session records. It
// does not enforce one-session-per-user on its own; the sign-in path gets
// that property by always terminating the previous session before creating
// the next one.
type Manager struct {
	store     Store
	blacklist *Blacklist
	ttl       time.Duration

	now func() time.Time
}

// NewManager creates a Manager. ttl is the session lifetime stamped on new
// records.
func NewManager(store Store, blacklist *Blacklist, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{
		store:     store,
		blacklist: blacklist,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Create allocates a fresh opaque session identifier, stamps creation and
// expiry, persists the record and returns it.
func (m *Manager) Create(ctx context.Context, userID string) (*Session, error) {
	now := m.now()
	sess := &Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Find returns the session matching f, or nil when none does.
func (m *Manager) Find(ctx context.Context, f Filter) (*Session, error) {
	return m.store.Find(ctx, f)
}

// Delete removes the session matching f. Missing records are a no-op.
func (m *Manager) Delete(ctx context.Context, f Filter) error {
	return m.store.Delete(ctx, f)
}

// Blacklist marks the session identifier as revoked.
func (m *Manager) Blacklist(ctx context.Context, sessionID string) error {
	return m.blacklist.Add(ctx, sessionID)
}

// IsBlacklisted reports whether the session identifier has been revoked.
func (m *Manager) IsBlacklisted(ctx context.Context, sessionID string) (bool, error) {
	return m.blacklist.Contains(ctx, sessionID)
}

// Terminate deletes the user's current session, if any, and blacklists its
// identifier so outstanding tokens referencing it are rejected before their
// natural expiry. Concurrent terminations for the same user can race; the
// window is accepted because the security property is bounded by token
// expiry, not strict single-session enforcement.
func (m *Manager) Terminate(ctx context.Context, userID string) error {
	sess, err := m.store.Find(ctx, Filter{UserID: userID})
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if err := m.store.Delete(ctx, Filter{SessionID: sess.SessionID}); err != nil {
		return err
	}
	return m.blacklist.Add(ctx, sess.SessionID)
}
