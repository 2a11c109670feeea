// Package token signs and verifies the three token kinds the engine
// issues: Ed25519-signed access and refresh tokens, and an HS256 MFA
// challenge token with its own secret and a deliberately short lifetime.
//
// Verification is tri-state. A parse returns the claims, [ErrExpired], or
// [ErrInvalid]; it never panics on malformed input. The split lets the
// boundary distinguish a token that merely needs refreshing from one that
// must be rejected outright.
package token
