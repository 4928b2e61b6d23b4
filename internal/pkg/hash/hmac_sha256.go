package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements the Hash interface using a keyed SHA-256 digest.
//
// The output is deterministic, so it suits opaque references (log fields,
// limiter keys) rather than stored credentials.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher with a secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex encoded HMAC SHA-256 of str.
func (s *HMACSHA256) Hash(str string) (string, error) {
	return hex.EncodeToString(s.sum(str)), nil
}

// Verify checks whether str matches the hex encoded digest.
func (s *HMACSHA256) Verify(hashed, str string) (bool, error) {
	if len(hashed) != hex.EncodedLen(sha256.Size) {
		return false, malformed("unexpected digest length")
	}

	want, err := hex.DecodeString(hashed)
	if err != nil {
		return false, malformed("digest is not hex")
	}

	return hmac.Equal(want, s.sum(str)), nil
}

// Reference is Hash without the error return.
func (s *HMACSHA256) Reference(str string) string {
	return hex.EncodeToString(s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return h.Sum(nil)
}
