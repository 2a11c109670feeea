// Package password implements credential hashing and comparison with
// Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The package owns hashing and comparison only. Attempt counting, lockout
// and password policy are enforced by the engine. The same Hasher digests
// one-time codes, so no length floor is imposed here.
package password
