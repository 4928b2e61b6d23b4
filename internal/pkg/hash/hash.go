package hash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedHash is returned when a stored hash is not a valid encoding.
	ErrMalformedHash = errors.New("hash: malformed stored hash")

	// ErrSecretTooLong is returned when a secret exceeds the algorithm input limit.
	ErrSecretTooLong = errors.New("hash: secret too long")

	// ErrUnknownAlgorithm is returned for an algorithm name this package does not implement.
	ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")
)

// Hash derives a stored hash from a secret and checks secrets against it.
type Hash interface {
	Hash(str string) (string, error)
	Verify(hashed, str string) (bool, error)
}

// Hasher is a Hash that understands the parameters encoded in its output.
type Hasher interface {
	Hash
	Algorithm() Algorithm
	Inspect(hashed string) (Info, error)
	NeedsRehash(hashed string) (bool, error)
}

// Algorithm names an adaptive hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

func (a Algorithm) String() string { return string(a) }

// ParseAlgorithm maps a configuration or request value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmBcrypt:
		return AlgorithmBcrypt, nil
	case AlgorithmArgon2id:
		return AlgorithmArgon2id, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Identify reads the algorithm tag of a stored hash.
//
// Tags that are not implemented here, including future ones, are malformed.
func Identify(hashed string) (Algorithm, error) {
	switch {
	case strings.HasPrefix(hashed, "$2a$"),
		strings.HasPrefix(hashed, "$2b$"),
		strings.HasPrefix(hashed, "$2y$"):
		return AlgorithmBcrypt, nil
	case strings.HasPrefix(hashed, "$argon2id$"):
		return AlgorithmArgon2id, nil
	case hashed == "":
		return "", malformed("empty value")
	default:
		return "", malformed("unrecognized algorithm tag")
	}
}

// Info describes the parameters stored in a hash. Fields that do not apply
// to the algorithm are zero.
type Info struct {
	Algorithm   Algorithm
	Cost        int
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, reason)
}
