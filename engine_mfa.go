package authcore

import (
	"context"
	"time"
)

// GenerateMFASetup provisions a fresh TOTP secret for the user and returns
// the otpauth URL plus a QR code data URI. The secret is stored immediately
// but MFA stays disabled until EnableMFA confirms a code generated from it.
// Calling this again replaces any pending, unconfirmed secret.
func (e *Engine) GenerateMFASetup(ctx context.Context, userID string) (*MFASetup, error) {
	if e.users == nil || e.totp == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	setup, err := e.totp.GenerateSetup(user.Email)
	if err != nil {
		return nil, err
	}
	if err := e.users.SetMFAState(ctx, userID, false, setup.Secret); err != nil {
		return nil, err
	}

	e.metricInc(MetricMFASetupGenerated)
	e.emitAudit(ctx, auditEventMFASetup, true, userID, "", user.Email, nil, nil)
	return setup, nil
}

// EnableMFA turns on the second factor once the user proves they can
// produce a valid code from the provisioned secret.
func (e *Engine) EnableMFA(ctx context.Context, userID, code string) error {
	if e.users == nil || e.totp == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !e.totp.VerifyCode(user.MFASecret, code, e.now()) {
		e.emitAudit(ctx, auditEventMFAEnabled, false, userID, "", user.Email, ErrInvalidMFACode, nil)
		return ErrInvalidMFACode
	}

	if err := e.users.SetMFAState(ctx, userID, true, user.MFASecret); err != nil {
		return err
	}
	if err := e.users.SetMFAFailure(ctx, userID, 0, nil); err != nil {
		return err
	}

	e.metricInc(MetricMFAEnabled)
	e.emitAudit(ctx, auditEventMFAEnabled, true, userID, "", user.Email, nil, nil)
	return nil
}

// DisableMFA removes the second factor. It requires a currently valid code
// so a hijacked session cannot silently weaken the account.
func (e *Engine) DisableMFA(ctx context.Context, userID, code string) error {
	if e.users == nil || e.totp == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.MFAEnabled {
		return ErrMFANotEnabled
	}

	if err := e.verifyMFACode(ctx, user, code); err != nil {
		e.emitAudit(ctx, auditEventMFADisabled, false, userID, "", user.Email, err, nil)
		return err
	}

	if err := e.users.SetMFAState(ctx, userID, false, ""); err != nil {
		return err
	}
	if err := e.users.SetMFAFailure(ctx, userID, 0, nil); err != nil {
		return err
	}

	e.metricInc(MetricMFADisabled)
	e.emitAudit(ctx, auditEventMFADisabled, true, userID, "", user.Email, nil, nil)
	return nil
}

// verifyMFACode checks a TOTP code for an enrolled user and maintains the
// timed lockout. The attempt that crosses the limit arms the lock but
// still reports ErrInvalidMFACode; only attempts made while the lock is in
// force report ErrRateLimited. The failure counter survives a lapsed lock,
// so a wrong code right after the window re-arms it; only a correct code
// resets the state.
func (e *Engine) verifyMFACode(ctx context.Context, user *User, code string) error {
	now := e.now()

	if user.MFALockedUntil != nil && now.Before(*user.MFALockedUntil) {
		e.metricInc(MetricMFARateLimited)
		return ErrRateLimited
	}

	if e.totp.VerifyCode(user.MFASecret, code, now) {
		if user.MFAFailedAttempts > 0 || user.MFALockedUntil != nil {
			if err := e.users.SetMFAFailure(ctx, user.UserID, 0, nil); err != nil {
				return err
			}
		}
		e.metricInc(MetricMFASuccess)
		return nil
	}
	e.metricInc(MetricMFAFailure)

	attempts := user.MFAFailedAttempts + 1
	var lockedUntil *time.Time
	if attempts > e.config.MFA.MaxFailedAttempts {
		t := now.Add(e.config.MFA.LockDuration)
		lockedUntil = &t
	}
	if err := e.users.SetMFAFailure(ctx, user.UserID, attempts, lockedUntil); err != nil {
		return err
	}
	return ErrInvalidMFACode
}
