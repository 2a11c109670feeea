package authcore

import (
	"context"
	"errors"
)

// RequestPasswordReset issues a reset code for the account and mails it.
// Unknown emails return nil to avoid account enumeration.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e.users == nil || e.otps == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	code, err := e.otps.Generate(ctx, email, PurposePasswordReset)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricOTPRateLimited)
		}
		return err
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, user.UserID, "", email, nil, func() map[string]string {
		return map[string]string{"purpose": string(PurposePasswordReset)}
	})
	e.sendCodeAsync(email, "Reset your password", code)
	return nil
}

// ConfirmPasswordReset consumes a reset code, installs the new password,
// clears the failure counter so a locked account is usable again, and
// terminates any live session. Completing a reset also proves control of
// the mailbox, so the account is marked verified.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if e.users == nil || e.otps == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidOTP
	}

	if err := e.otps.Verify(ctx, email, PurposePasswordReset, code); err != nil {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, user.UserID, "", email, err, nil)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.users.UpdatePasswordHash(ctx, user.UserID, hash); err != nil {
		return err
	}
	if err := e.users.SetPasswordFailedAttempts(ctx, user.UserID, 0); err != nil {
		return err
	}
	if !user.Verified {
		if err := e.users.SetVerified(ctx, user.UserID); err != nil {
			return err
		}
	}
	if e.sessions != nil {
		if err := e.sessions.Terminate(ctx, user.UserID); err != nil {
			return err
		}
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, user.UserID, "", email, nil, nil)
	return nil
}

// ChangePassword rotates the password for an authenticated user. It demands
// the current password again and keeps the existing session alive.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e.users == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := e.verifyPassword(ctx, user, currentPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", user.Email, err, nil)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, userID, "", user.Email, nil, nil)
	return nil
}
