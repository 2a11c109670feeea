// Package authcore is the authentication and session core of a multi-user
// backend: credential verification with per-account lockout, TOTP-based
// multi-factor authentication, one-time codes for email verification and
// password reset, and access/refresh token lifecycle bound to revocable
// session records.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], the store interfaces ([UserStore], [OTPStore]) and value types.
// Token signing lives in the token subpackage, session persistence and the
// revocation blacklist in the session subpackage, and argon2id hashing in
// the password subpackage.
//
// # Architecture boundaries
//
// authcore is transport-agnostic. It never sees HTTP: domain failures are
// sentinel errors classified by [KindOf], and translation to status codes
// happens in whatever boundary layer embeds the engine. External
// collaborators (the user store, the mailer, the Redis client) are supplied
// at construction through [Builder] and treated as opaque capabilities.
//
// Engine methods are safe for concurrent use after [Builder.Build]. The
// engine holds no long-lived mutable state of its own; correctness under
// concurrency is delegated to the backing stores.
package authcore
