package hash

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt accepts at most 72 bytes of input.
const bcryptMaxInput = 72

// $2a$10$ followed by a 22 character salt and a 31 character digest.
var reBcrypt = regexp.MustCompile(`^\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}$`)

// Bcrypt implements Hasher using bcrypt.
//
// Pepper is appended to the plaintext before hashing/verifying. Keep the pepper
// secret and store it in configuration (not in the database).
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt-based hasher. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Algorithm() Algorithm { return AlgorithmBcrypt }

// Hash hashes plaintext using bcrypt.
func (h *Bcrypt) Hash(plaintext string) (string, error) {
	input := plaintext + h.pepper
	if len(input) > bcryptMaxInput {
		return "", ErrSecretTooLong
	}

	out, err := bcrypt.GenerateFromPassword([]byte(input), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrSecretTooLong
		}
		return "", err
	}

	return string(out), nil
}

// Verify reports whether plaintext matches hashed. A hashed value that is
// not a bcrypt encoding yields ErrMalformedHash.
func (h *Bcrypt) Verify(hashed, plaintext string) (bool, error) {
	if _, err := h.Inspect(hashed); err != nil {
		return false, err
	}

	input := plaintext + h.pepper
	if len(input) > bcryptMaxInput {
		return false, ErrSecretTooLong
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(input))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, ErrSecretTooLong
	default:
		return false, malformed(err.Error())
	}
}

// Inspect returns the cost stored in hashed.
func (h *Bcrypt) Inspect(hashed string) (Info, error) {
	if len(hashed) != 60 || !reBcrypt.MatchString(hashed) {
		return Info{}, malformed("not a bcrypt encoding")
	}

	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		return Info{}, malformed(err.Error())
	}

	return Info{Algorithm: AlgorithmBcrypt, Cost: cost}, nil
}

// NeedsRehash reports whether hashed was produced with a lower cost than h.
func (h *Bcrypt) NeedsRehash(hashed string) (bool, error) {
	info, err := h.Inspect(hashed)
	if err != nil {
		return false, err
	}

	return info.Cost < h.cost, nil
}
