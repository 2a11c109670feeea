package authcore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	internalaudit "github.com/velvetlabs/authcore/internal/audit"
	"github.com/velvetlabs/authcore/password"
	"github.com/velvetlabs/authcore/session"
	"github.com/velvetlabs/authcore/token"
)

// Engine orchestrates the authentication flows. Construct it through
// [Builder]; the zero value is not usable. Engine methods are safe for
// concurrent use.
type Engine struct {
	config Config

	users    UserStore
	sessions *session.Manager
	otps     *otpManager
	totp     *totpManager
	tokens   *token.Manager
	hasher   *password.Hasher
	mailer   Mailer

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger

	mailWG sync.WaitGroup
	now    func() time.Time
}

// Close flushes the audit dispatcher and waits for in-flight mail
// deliveries.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mailWG.Wait()
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded due to buffer
// pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ValidateAccess verifies an access token and checks its session against
// the blacklist. It returns the claims, or ErrUnauthorized.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*token.AccessClaims, error) {
	if e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	listed, err := e.sessions.IsBlacklisted(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// sendCodeAsync delivers a one-time code without blocking the caller. The
// request succeeds whether or not delivery does; delivery failures are
// logged and audited, never surfaced to the requester.
func (e *Engine) sendCodeAsync(email, subject, code string) {
	if e.mailer == nil {
		e.logger.Debug("mailer not configured, skipping delivery", "to", email, "subject", subject)
		return
	}

	textBody := "Your OTP Code is: " + code
	htmlBody := "Your OTP Code is: <b>" + code + "</b>"

	e.mailWG.Add(1)
	go func() {
		defer e.mailWG.Done()

		// Detached from the request context on purpose: the response has
		// already been decided.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.mailer.Send(ctx, email, subject, textBody, htmlBody); err != nil {
			e.metricInc(MetricMailSendFailure)
			e.logger.Error("one-time code delivery failed", "to", email, "subject", subject, "error", err)
			e.emitAudit(ctx, auditEventMailDeliveryFailed, false, "", "", email, err, nil)
			return
		}
		e.logger.Info("one-time code sent", "to", email, "subject", subject)
	}()
}
