package authcore

import (
	"context"
	"testing"
)

func TestEmailVerificationRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.SignUp(ctx, "a@example.com", "hunter2!", "A"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if err := env.engine.RequestEmailVerification(ctx, "a@example.com"); err != nil {
		t.Fatalf("request verification: %v", err)
	}
	code := env.mail.awaitCode(t)
	if len(code) != 6 {
		t.Fatalf("code %q, want 6 digits", code)
	}

	if err := env.engine.ConfirmEmailVerification(ctx, "a@example.com", code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	u, _ := env.users.FindByEmail(ctx, "a@example.com")
	if !u.Verified {
		t.Fatal("account not marked verified")
	}

	// Single use: replaying the consumed code fails.
	u.Verified = false
	env.users.byID[u.UserID].Verified = false
	if err := env.engine.ConfirmEmailVerification(ctx, "a@example.com", code); err != ErrInvalidOTP {
		t.Fatalf("replay: err = %v, want ErrInvalidOTP", err)
	}
}

func TestEmailVerificationCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.SignUp(ctx, "cool@example.com", "hunter2!", "C"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := env.engine.RequestEmailVerification(ctx, "cool@example.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	env.mail.awaitCode(t)

	if err := env.engine.RequestEmailVerification(ctx, "cool@example.com"); err != ErrRateLimited {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// Cooldown lapses with the code's TTL.
	env.redis.FastForward(env.engine.config.OTP.TTL + 1)
	if err := env.engine.RequestEmailVerification(ctx, "cool@example.com"); err != nil {
		t.Fatalf("request after TTL: %v", err)
	}
	env.mail.awaitCode(t)
}

func TestEmailVerificationDoesNotLeakAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.engine.RequestEmailVerification(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email: %v", err)
	}

	env.signUpVerified(t, "done@example.com", "hunter2!")
	if err := env.engine.RequestEmailVerification(ctx, "done@example.com"); err != nil {
		t.Fatalf("already verified: %v", err)
	}

	select {
	case code := <-env.mail.codes:
		t.Fatalf("unexpected delivery %q", code)
	default:
	}
}

func TestEmailVerificationAttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.SignUp(ctx, "tries@example.com", "hunter2!", "T"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := env.engine.RequestEmailVerification(ctx, "tries@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := env.mail.awaitCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		if err := env.engine.ConfirmEmailVerification(ctx, "tries@example.com", wrong); err != ErrInvalidOTP {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidOTP", i+1, err)
		}
	}

	// The record is exhausted; even the right code fails now.
	if err := env.engine.ConfirmEmailVerification(ctx, "tries@example.com", code); err != ErrInvalidOTP {
		t.Fatalf("exhausted: err = %v, want ErrInvalidOTP", err)
	}
}
