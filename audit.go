package authcore

import (
	"context"

	internalaudit "github.com/velvetlabs/authcore/internal/audit"
)

const (
	auditEventSignUp             = "signup"
	auditEventSignIn             = "signin"
	auditEventSignInMFARequired  = "signin_mfa_required"
	auditEventSignInMFAConfirm   = "signin_mfa_confirm"
	auditEventSignOut            = "signout"
	auditEventRefresh            = "refresh"
	auditEventOTPIssued          = "otp_issued"
	auditEventEmailVerified      = "email_verified"
	auditEventPasswordReset      = "password_reset"
	auditEventPasswordChange     = "password_change"
	auditEventMFASetup           = "mfa_setup"
	auditEventMFAEnabled         = "mfa_enabled"
	auditEventMFADisabled        = "mfa_disabled"
	auditEventMailDeliveryFailed = "mail_delivery_failed"
)

// emitAudit forwards an event to the dispatcher. metadata is built lazily
// so disabled auditing costs nothing.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, sessionID, email string,
	failure error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: e.now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Email:     email,
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
