package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Bounds accepted when parsing a stored argon2id hash. The upper limits keep
// a crafted value from requesting unbounded memory or time.
const (
	argonMinMemory      uint32 = 8 * 1024
	argonMaxMemory      uint32 = 1 << 20
	argonMinIterations  uint32 = 1
	argonMaxIterations  uint32 = 16
	argonMinParallelism uint8  = 1
	argonMaxParallelism uint8  = 16
	argonMinSaltLength         = 16
	argonMinKeyLength          = 16
	argonMaxKeyLength          = 64
)

// Argon2id implements Hasher using Argon2id and the PHC string format.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
}

// NewArgon2id returns a Argon2id hasher with recommended defaults.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:      32 * 1024, // KiB
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      pepper,
	}
}

func (a *Argon2id) Algorithm() Algorithm { return AlgorithmArgon2id }

// Hash takes a plaintext string and returns its PHC encoded hash.
func (a *Argon2id) Hash(str string) (string, error) {
	salt := make([]byte, a.saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(str+a.pepper), salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.memory,
		a.iterations,
		a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the given plaintext string matches the hashed value.
func (a *Argon2id) Verify(hashed, str string) (bool, error) {
	p, err := parsePHC(hashed)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(str+a.pepper), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(p.key, computed) == 1, nil
}

// Inspect returns the cost parameters stored in hashed.
func (a *Argon2id) Inspect(hashed string) (Info, error) {
	p, err := parsePHC(hashed)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Algorithm:   AlgorithmArgon2id,
		Memory:      p.memory,
		Iterations:  p.iterations,
		Parallelism: p.parallelism,
	}, nil
}

// NeedsRehash reports whether hashed is weaker than the parameters of a.
func (a *Argon2id) NeedsRehash(hashed string) (bool, error) {
	p, err := parsePHC(hashed)
	if err != nil {
		return false, err
	}

	return p.memory < a.memory ||
		p.iterations < a.iterations ||
		p.parallelism < a.parallelism ||
		uint32(len(p.key)) != a.keyLength, nil
}

type phc struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(hashed string) (*phc, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, malformed("invalid PHC layout")
	}
	if parts[1] != string(AlgorithmArgon2id) {
		return nil, malformed("unsupported algorithm tag")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, malformed("missing argon2 version")
	}
	v, err := strconv.Atoi(version)
	if err != nil || v != argon2.Version {
		return nil, malformed("unsupported argon2 version")
	}

	p := &phc{}
	if err := p.parseParams(parts[3]); err != nil {
		return nil, err
	}

	p.salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(p.salt) < argonMinSaltLength {
		return nil, malformed("invalid salt")
	}

	p.key, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(p.key) < argonMinKeyLength || len(p.key) > argonMaxKeyLength {
		return nil, malformed("invalid digest")
	}

	return p, nil
}

func (p *phc) parseParams(s string) error {
	pairs := strings.Split(s, ",")
	if len(pairs) != 3 {
		return malformed("invalid parameter list")
	}

	var seen [3]bool
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return malformed("invalid parameter entry")
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || uint32(n) < argonMinMemory || uint32(n) > argonMaxMemory {
				return malformed("memory out of range")
			}
			p.memory, seen[0] = uint32(n), true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || uint32(n) < argonMinIterations || uint32(n) > argonMaxIterations {
				return malformed("iterations out of range")
			}
			p.iterations, seen[1] = uint32(n), true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || uint8(n) < argonMinParallelism || uint8(n) > argonMaxParallelism {
				return malformed("parallelism out of range")
			}
			p.parallelism, seen[2] = uint8(n), true
		default:
			return malformed("unknown parameter " + strconv.Quote(k))
		}
	}

	if !seen[0] || !seen[1] || !seen[2] {
		return malformed("missing parameter")
	}

	return nil
}
