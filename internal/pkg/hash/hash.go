// Package hash provides helpers for hashing and verifying short secrets.
//
// The service stores only a fingerprint of each per-device secret, never the
// secret itself. Implementations live behind a small interface so tests can
// swap in deterministic fakes.
package hash

// Hash computes and verifies one-way hashes of short secret values.
type Hash interface {
	// Hash returns the hash of the input.
	Hash(str string) ([]byte, error)
	// Verify reports whether the plaintext matches the given hash.
	Verify(hashed, str string) bool
}
