package authcore

import "context"

// verifyPassword checks the presented password against the stored hash and
// maintains the per-account failure counter. Once the counter reaches the
// configured limit the account stays rate limited until a successful
// password reset; the counter is not time based.
func (e *Engine) verifyPassword(ctx context.Context, user *User, presented string) error {
	if user.PasswordFailedAttempts >= e.config.Password.MaxFailedAttempts {
		e.metricInc(MetricSignInRateLimited)
		return ErrRateLimited
	}

	ok, err := e.hasher.Compare(presented, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		if err := e.users.SetPasswordFailedAttempts(ctx, user.UserID, user.PasswordFailedAttempts+1); err != nil {
			return err
		}
		e.metricInc(MetricSignInFailure)
		return ErrInvalidCredentials
	}

	if user.PasswordFailedAttempts > 0 {
		if err := e.users.SetPasswordFailedAttempts(ctx, user.UserID, 0); err != nil {
			return err
		}
	}
	return nil
}
