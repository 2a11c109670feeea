package authcore

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/velvetlabs/authcore/internal/audit"
)

// User is the account record the engine reads and mutates through
// [UserStore]. The store owns everything else about the account.
//
// Invariant: MFASecret is non-empty iff MFA is enabled or enrollment is in
// progress.
type User struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string

	Verified bool

	MFAEnabled bool
	MFASecret  string

	PasswordFailedAttempts int
	MFAFailedAttempts      int
	MFALockedUntil         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore is the persistence capability callers implement to integrate
// the engine with their user database. Lookups return (nil, nil) on a clean
// miss. Update methods touch only the named fields.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error

	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	SetVerified(ctx context.Context, userID string) error
	SetPasswordFailedAttempts(ctx context.Context, userID string, attempts int) error

	// SetMFAState updates enrollment. An empty secret clears it.
	SetMFAState(ctx context.Context, userID string, enabled bool, secret string) error
	// SetMFAFailure updates the MFA failure counter and lock timestamp; a
	// nil lockedUntil clears the lock.
	SetMFAFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error
}

// OTPPurpose discriminates the two one-time-code flows that share the same
// storage shape.
type OTPPurpose string

const (
	// PurposeEmailVerification marks codes minted to confirm mailbox
	// ownership at sign-up.
	PurposeEmailVerification OTPPurpose = "email_verification"
	// PurposePasswordReset marks codes minted for the password reset flow.
	PurposePasswordReset OTPPurpose = "password_reset"
)

// OTPRecord is a stored one-time code. Only the argon2 digest of the code
// is persisted; the plaintext exists once, in the generate response.
type OTPRecord struct {
	Email          string
	Purpose        OTPPurpose
	CodeHash       string
	FailedAttempts int
	CreatedAt      int64
	ExpiresAt      int64
}

// OTPStore is keyed CRUD on (email, purpose). At most one record lives per
// key; Find returns (nil, nil) on a miss.
type OTPStore interface {
	Find(ctx context.Context, email string, purpose OTPPurpose) (*OTPRecord, error)
	Create(ctx context.Context, record *OTPRecord) error
	IncrementAttempts(ctx context.Context, email string, purpose OTPPurpose) error
	Delete(ctx context.Context, email string, purpose OTPPurpose) error
}

// Mailer delivers out-of-band messages. The engine calls it best-effort
// from a background goroutine and never fails a request on delivery errors.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// SignInResult is returned by [Engine.SignIn] and
// [Engine.ConfirmSignInMFA]. When the account has MFA enabled, the first
// factor yields only a short-lived challenge token and MFARequired is true.
type SignInResult struct {
	AccessToken  string
	RefreshToken string
	SessionID    string

	MFARequired bool
	MFAToken    string
}

// MFASetup holds enrollment parameters: the base32 shared secret, the
// otpauth:// URI, and a PNG QR code of that URI as a data URL.
type MFASetup struct {
	Secret     string
	OTPAuthURL string
	QRCode     string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
