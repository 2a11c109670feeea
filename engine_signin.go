package authcore

import (
	"context"

	"github.com/google/uuid"
)

// SignUp registers a new, unverified account. The email must not already be
// in use.
func (e *Engine) SignUp(ctx context.Context, email, plainPassword, name string) (*User, error) {
	if e.users == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	existing, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.metricInc(MetricSignUpDuplicate)
		return nil, ErrAccountExists
	}

	hash, err := e.hasher.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	now := e.now()
	user := &User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.users.Create(ctx, user); err != nil {
		return nil, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUp, true, user.UserID, "", email, nil, nil)
	return user, nil
}

// SignIn verifies the first factor. Unknown email and wrong password
// produce the same ErrInvalidCredentials. Accounts with MFA enabled receive
// a short-lived challenge token instead of session tokens.
func (e *Engine) SignIn(ctx context.Context, email, plainPassword string) (*SignInResult, error) {
	if e.users == nil || e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignIn, false, "", "", email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		e.emitAudit(ctx, auditEventSignIn, false, user.UserID, "", email, ErrNotVerified, nil)
		return nil, ErrNotVerified
	}

	if err := e.verifyPassword(ctx, user, plainPassword); err != nil {
		e.emitAudit(ctx, auditEventSignIn, false, user.UserID, "", email, err, nil)
		return nil, err
	}

	if user.MFAEnabled {
		mfaToken, err := e.tokens.SignMFA(user.UserID)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricMFARequired)
		e.emitAudit(ctx, auditEventSignInMFARequired, true, user.UserID, "", email, nil, nil)
		return &SignInResult{MFARequired: true, MFAToken: mfaToken}, nil
	}

	return e.establishSession(ctx, user, "")
}

// ConfirmSignInMFA completes a sign-in that required a second factor. The
// challenge token proves the password check already succeeded; the TOTP
// code proves possession of the enrolled authenticator.
func (e *Engine) ConfirmSignInMFA(ctx context.Context, mfaToken, code string) (*SignInResult, error) {
	if e.users == nil || e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseMFA(mfaToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := e.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	if !user.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	if err := e.verifyMFACode(ctx, user, code); err != nil {
		e.emitAudit(ctx, auditEventSignInMFAConfirm, false, user.UserID, "", user.Email, err, nil)
		return nil, err
	}

	result, err := e.establishSession(ctx, user, "")
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, auditEventSignInMFAConfirm, true, user.UserID, result.SessionID, user.Email, nil, nil)
	return result, nil
}

// SignOut terminates the user's session and blacklists its identifier so
// outstanding tokens stop working ahead of expiry.
func (e *Engine) SignOut(ctx context.Context, userID string) error {
	if e.sessions == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.Terminate(ctx, userID); err != nil {
		return err
	}
	e.metricInc(MetricSignOut)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSignOut, true, userID, "", "", nil, nil)
	return nil
}

// establishSession runs the terminate-then-create sequence and issues the
// access/refresh pair for the fresh session. Deleting and blacklisting the
// prior session first keeps at most one live, trusted session per user;
// concurrent sign-ins can race here, which is accepted (tokens still expire
// on schedule).
func (e *Engine) establishSession(ctx context.Context, user *User, workspaceID string) (*SignInResult, error) {
	if err := e.sessions.Terminate(ctx, user.UserID); err != nil {
		return nil, err
	}

	sess, err := e.sessions.Create(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricSessionCreated)

	accessToken, err := e.tokens.SignAccess(user.UserID, sess.SessionID, workspaceID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := e.tokens.SignRefresh(sess.SessionID, workspaceID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignIn, true, user.UserID, sess.SessionID, user.Email, nil, nil)

	return &SignInResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sess.SessionID,
	}, nil
}
