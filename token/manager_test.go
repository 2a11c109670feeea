package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) (Config, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	return Config{
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		MFATTL:     3 * time.Minute,
		PrivateKey: priv,
		PublicKey:  pub,
		MFASecret:  []byte("0123456789abcdef0123456789abcdef"),
	}, priv
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestAccessRoundTrip(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "w1")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}

	claims, err := m.ParseAccess(raw)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" || claims.WorkspaceID != "w1" {
		t.Errorf("claims = %+v, want uid=u1 sid=s1 wid=w1", claims)
	}
}

func TestAccessWorkspaceOmitted(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	claims, err := m.ParseAccess(raw)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.WorkspaceID != "" {
		t.Errorf("workspace id = %q, want empty", claims.WorkspaceID)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignRefresh("s1", "")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	claims, err := m.ParseRefresh(raw)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.SessionID != "s1" {
		t.Errorf("session id = %q, want s1", claims.SessionID)
	}
}

func TestAccessAndRefreshNotInterchangeable(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	access, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	refresh, err := m.SignRefresh("s1", "")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}

	// Both are EdDSA-signed with the same key, so only the type claim
	// separates a 1-hour credential from a 7-day one.
	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrInvalid) {
		t.Errorf("access as refresh: err = %v, want ErrInvalid", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrInvalid) {
		t.Errorf("refresh as access: err = %v, want ErrInvalid", err)
	}
}

func TestExpiredReturnsErrExpired(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.AccessTTL = time.Millisecond
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := m.ParseAccess(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("parse expired access = %v, want ErrExpired", err)
	}
}

func TestTamperedReturnsErrInvalid(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}

	parts := strings.Split(raw, ".")
	parts[2] = "AAAA" + parts[2][4:]
	if _, err := m.ParseAccess(strings.Join(parts, ".")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("parse tampered access = %v, want ErrInvalid", err)
	}

	if _, err := m.ParseAccess("not-a-token"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("parse garbage = %v, want ErrInvalid", err)
	}
}

func TestWrongKeyReturnsErrInvalid(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}

	otherCfg, _ := testConfig(t)
	other := newTestManager(t, otherCfg)

	if _, err := other.ParseAccess(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("parse with wrong key = %v, want ErrInvalid", err)
	}
}

func TestMFARoundTrip(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignMFA("u1")
	if err != nil {
		t.Fatalf("sign mfa: %v", err)
	}
	claims, err := m.ParseMFA(raw)
	if err != nil {
		t.Fatalf("parse mfa: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("user id = %q, want u1", claims.UserID)
	}
}

func TestMFATokenRejectedAsAccess(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignMFA("u1")
	if err != nil {
		t.Fatalf("sign mfa: %v", err)
	}

	// Symmetric challenge tokens must never pass asymmetric verification.
	if _, err := m.ParseAccess(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("mfa token as access = %v, want ErrInvalid", err)
	}
}

func TestAccessTokenRejectedAsMFA(t *testing.T) {
	cfg, _ := testConfig(t)
	m := newTestManager(t, cfg)

	raw, err := m.SignAccess("u1", "s1", "")
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if _, err := m.ParseMFA(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access token as mfa = %v, want ErrInvalid", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	valid, _ := testConfig(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.RefreshTTL = 0 }},
		{"zero mfa ttl", func(c *Config) { c.MFATTL = 0 }},
		{"short mfa secret", func(c *Config) { c.MFASecret = []byte("short") }},
		{"missing public key", func(c *Config) { c.PublicKey = nil }},
		{"excessive leeway", func(c *Config) { c.Leeway = 5 * time.Minute }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}
