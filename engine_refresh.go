package authcore

import (
	"context"

	"github.com/velvetlabs/authcore/session"
)

// Refresh exchanges a valid refresh token for a new access token. The
// session must still exist and must not be blacklisted; the refresh token
// itself is not rotated and stays valid until its own expiry.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e.tokens == nil || e.sessions == nil {
		return "", ErrEngineNotReady
	}

	claims, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", ErrUnauthorized
	}

	blacklisted, err := e.sessions.IsBlacklisted(ctx, claims.SessionID)
	if err != nil {
		return "", err
	}
	if blacklisted {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, "", claims.SessionID, "", ErrUnauthorized, nil)
		return "", ErrUnauthorized
	}

	sess, err := e.sessions.Find(ctx, session.Filter{SessionID: claims.SessionID})
	if err != nil {
		return "", err
	}
	if sess == nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, "", claims.SessionID, "", ErrUnauthorized, nil)
		return "", ErrUnauthorized
	}

	accessToken, err := e.tokens.SignAccess(sess.UserID, sess.SessionID, claims.WorkspaceID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, sess.UserID, sess.SessionID, "", nil, nil)
	return accessToken, nil
}
