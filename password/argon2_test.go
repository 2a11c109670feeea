package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	// Minimum costs keep the test suite fast.
	h, err := NewHasher(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndCompare(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("hash = %q, want PHC argon2id prefix", encoded)
	}

	ok, err := h.Compare("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to compare true")
	}

	ok, err = h.Compare("wrong password", encoded)
	if err != nil {
		t.Fatalf("compare mismatch: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to compare false")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := testHasher(t)

	first, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct digests")
	}
}

func TestShortCodeDigest(t *testing.T) {
	h := testHasher(t)

	// The hasher also digests 6-digit one-time codes.
	encoded, err := h.Hash("493021")
	if err != nil {
		t.Fatalf("hash code: %v", err)
	}
	ok, err := h.Compare("493021", encoded)
	if err != nil {
		t.Fatalf("compare code: %v", err)
	}
	if !ok {
		t.Fatal("expected code digest to round-trip")
	}
}

func TestCompareMalformed(t *testing.T) {
	h := testHasher(t)

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		if _, err := h.Compare("anything", encoded); err == nil {
			t.Errorf("compare %q: expected parse error", encoded)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("some password 1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	needs, err := h.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("needs rehash: %v", err)
	}
	if needs {
		t.Fatal("fresh hash should not need rehash")
	}

	stronger, err := NewHasher(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	needs, err = stronger.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("needs rehash: %v", err)
	}
	if !needs {
		t.Fatal("weaker hash should need rehash under stronger config")
	}
}

func TestNewHasherValidation(t *testing.T) {
	base := Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low memory", func(c *Config) { c.Memory = 1024 }},
		{"zero time", func(c *Config) { c.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.SaltLength = 8 }},
		{"short key", func(c *Config) { c.KeyLength = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := NewHasher(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}
