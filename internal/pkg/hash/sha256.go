package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256 implements the Hash interface using plain SHA-256.
//
// It is meant for fingerprinting high-entropy values (derived keys), not for
// low-entropy user secrets like passwords.
type SHA256 struct{}

// NewSHA256 creates a new SHA-256 hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

// Hash returns the SHA-256 digest of the input string (hex-encoded).
func (s *SHA256) Hash(str string) ([]byte, error) {
	return s.gen(str), nil
}

// Verify checks whether the plaintext string matches the given hash.
func (s *SHA256) Verify(hashed, str string) bool {
	expected := s.gen(str)
	return subtle.ConstantTimeCompare([]byte(hashed), expected) == 1
}

func (s *SHA256) gen(str string) []byte {
	sum := sha256.Sum256([]byte(str))
	result := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(result, sum[:])
	return result
}
