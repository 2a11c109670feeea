package authcore

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// that responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRateLimited is returned for password lockout, MFA lockout and OTP
	// cooldown alike. The message never reveals remaining attempts or the
	// unlock time.
	ErrRateLimited = errors.New("too many attempts, try again later")
	// ErrInvalidOTP collapses missing, expired, exhausted and mismatched
	// one-time codes into a single answer.
	ErrInvalidOTP = errors.New("invalid verification code")
	// ErrInvalidMFACode is returned when a TOTP code does not match.
	ErrInvalidMFACode = errors.New("invalid mfa code")
	// ErrNotVerified blocks sign-in and MFA operations on accounts whose
	// email has not been confirmed.
	ErrNotVerified = errors.New("account not verified")
	// ErrMFANotEnabled is returned for MFA operations on accounts without an
	// enrolled authenticator.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrMFAAlreadyEnabled is returned when enrollment is confirmed twice.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrUnauthorized is returned for token verification failures and for
	// refresh attempts against a blacklisted or missing session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is returned by flows that are allowed to acknowledge
	// account existence (verification and reset requests).
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists rejects sign-up with an email already in use.
	ErrAccountExists = errors.New("account already exists")
	// ErrEngineNotReady is returned when an Engine method runs before the
	// builder wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind is the transport-agnostic classification of a domain error. The
// boundary layer maps kinds to status codes; the core never attaches
// transport metadata to errors.
type Kind int

const (
	// KindUnknown marks unexpected failures (store outages, programming
	// errors). Boundaries should log detail and answer generically.
	KindUnknown Kind = iota
	// KindBadRequest marks rejected input: bad codes, bad credentials.
	KindBadRequest
	// KindUnauthorized marks failed token or session trust.
	KindUnauthorized
	// KindForbidden marks operations blocked by account state.
	KindForbidden
	// KindNotFound marks lookups against absent records.
	KindNotFound
	// KindRateLimited marks lockouts and cooldowns.
	KindRateLimited
)

// KindOf classifies err into the closed [Kind] set. Unrecognized errors are
// KindUnknown and must not leak internals to callers.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotVerified):
		return KindForbidden
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrInvalidMFACode),
		errors.Is(err, ErrMFANotEnabled),
		errors.Is(err, ErrMFAAlreadyEnabled),
		errors.Is(err, ErrAccountExists):
		return KindBadRequest
	default:
		return KindUnknown
	}
}
