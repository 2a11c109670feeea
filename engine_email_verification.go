package authcore

import (
	"context"
	"errors"
)

// RequestEmailVerification issues a one-time code for the given account and
// mails it. Already-verified accounts and unknown emails both return nil so
// the endpoint does not leak which addresses exist; a code still in its
// cooldown window returns ErrRateLimited.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) error {
	if e.users == nil || e.otps == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.Verified {
		return nil
	}

	code, err := e.otps.Generate(ctx, email, PurposeEmailVerification)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricOTPRateLimited)
		}
		return err
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, user.UserID, "", email, nil, func() map[string]string {
		return map[string]string{"purpose": string(PurposeEmailVerification)}
	})
	e.sendCodeAsync(email, "Verify your email", code)
	return nil
}

// ConfirmEmailVerification consumes a verification code and marks the
// account verified. Every failure mode reports ErrInvalidOTP.
func (e *Engine) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	if e.users == nil || e.otps == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidOTP
	}
	if user.Verified {
		return nil
	}

	if err := e.otps.Verify(ctx, email, PurposeEmailVerification, code); err != nil {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventEmailVerified, false, user.UserID, "", email, err, nil)
		return err
	}

	if err := e.users.SetVerified(ctx, user.UserID); err != nil {
		return err
	}

	e.metricInc(MetricEmailVerified)
	e.emitAudit(ctx, auditEventEmailVerified, true, user.UserID, "", email, nil, nil)
	return nil
}
