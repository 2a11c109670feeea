package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, "acs")
	blacklist := NewBlacklist(rdb, "acb", time.Hour)
	return NewManager(store, blacklist, 7*24*time.Hour), mr
}

func TestCreateAndFind(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatal("expected non-empty session id")
	}
	if got, want := sess.ExpiresAt-sess.CreatedAt, int64(7*24*3600); got != want {
		t.Errorf("lifetime = %d, want %d", got, want)
	}

	byID, err := m.Find(ctx, Filter{SessionID: sess.SessionID})
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID == nil || byID.UserID != "u1" {
		t.Fatalf("find by id = %+v, want user u1", byID)
	}

	byUser, err := m.Find(ctx, Filter{UserID: "u1"})
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if byUser == nil || byUser.SessionID != sess.SessionID {
		t.Fatalf("find by user = %+v, want session %s", byUser, sess.SessionID)
	}

	both, err := m.Find(ctx, Filter{SessionID: sess.SessionID, UserID: "u1"})
	if err != nil {
		t.Fatalf("find by both: %v", err)
	}
	if both == nil {
		t.Fatal("find by both returned nil")
	}
}

func TestFindMismatchedFilter(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := m.Find(ctx, Filter{SessionID: sess.SessionID, UserID: "someone-else"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("find with mismatched user = %+v, want nil", got)
	}

	got, err = m.Find(ctx, Filter{SessionID: "missing"})
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if got != nil {
		t.Fatalf("find missing = %+v, want nil", got)
	}

	// An empty filter never matches anything.
	got, err = m.Find(ctx, Filter{})
	if err != nil {
		t.Fatalf("find empty: %v", err)
	}
	if got != nil {
		t.Fatalf("find empty = %+v, want nil", got)
	}
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := m.Delete(ctx, Filter{UserID: "u1"}); err != nil {
		t.Fatalf("delete by user: %v", err)
	}

	for _, f := range []Filter{{SessionID: sess.SessionID}, {UserID: "u1"}} {
		got, err := m.Find(ctx, f)
		if err != nil {
			t.Fatalf("find after delete: %v", err)
		}
		if got != nil {
			t.Fatalf("find %+v after delete = %+v, want nil", f, got)
		}
	}

	// Deleting again is idempotent.
	if err := m.Delete(ctx, Filter{SessionID: sess.SessionID}); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestBlacklist(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	listed, err := m.IsBlacklisted(ctx, "s1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if listed {
		t.Fatal("fresh id reported blacklisted")
	}

	if err := m.Blacklist(ctx, "s1"); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	listed, err = m.IsBlacklisted(ctx, "s1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !listed {
		t.Fatal("expected id to be blacklisted")
	}

	// Entries lapse after the configured TTL.
	mr.FastForward(time.Hour + time.Minute)
	listed, err = m.IsBlacklisted(ctx, "s1")
	if err != nil {
		t.Fatalf("is blacklisted after ttl: %v", err)
	}
	if listed {
		t.Fatal("expected blacklist entry to expire")
	}
}

func TestTerminate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := m.Terminate(ctx, "u1"); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	got, err := m.Find(ctx, Filter{UserID: "u1"})
	if err != nil {
		t.Fatalf("find after terminate: %v", err)
	}
	if got != nil {
		t.Fatalf("find after terminate = %+v, want nil", got)
	}

	listed, err := m.IsBlacklisted(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !listed {
		t.Fatal("terminated session id not blacklisted")
	}

	// Terminating a user with no session is a no-op.
	if err := m.Terminate(ctx, "u2"); err != nil {
		t.Fatalf("terminate without session: %v", err)
	}
}

func TestSupersedingCreate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := m.Terminate(ctx, "u1"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	second, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Fatal("expected distinct session ids")
	}

	got, err := m.Find(ctx, Filter{UserID: "u1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.SessionID != second.SessionID {
		t.Fatalf("active session = %+v, want %s", got, second.SessionID)
	}
}
