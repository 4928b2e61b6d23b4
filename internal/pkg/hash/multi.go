package hash

import (
	"errors"
	"fmt"
)

// Multi hashes with a primary algorithm and verifies any supported one,
// dispatching on the tag of the stored value.
type Multi struct {
	primary Algorithm
	hashers map[Algorithm]Hasher
}

// NewMulti builds a dispatcher. The primary algorithm must be among hashers.
func NewMulti(primary Algorithm, hashers ...Hasher) (*Multi, error) {
	m := &Multi{primary: primary, hashers: make(map[Algorithm]Hasher, len(hashers))}
	for _, h := range hashers {
		m.hashers[h.Algorithm()] = h
	}

	if _, ok := m.hashers[primary]; !ok {
		return nil, fmt.Errorf("%w: primary %q is not registered", ErrUnknownAlgorithm, primary)
	}

	return m, nil
}

// Primary returns the algorithm used by Hash.
func (m *Multi) Primary() Algorithm { return m.primary }

// Hasher returns the registered hasher for alg.
func (m *Multi) Hasher(alg Algorithm) (Hasher, error) {
	h, ok := m.hashers[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}

	return h, nil
}

// Hash hashes str with the primary algorithm.
func (m *Multi) Hash(str string) (string, error) {
	return m.hashers[m.primary].Hash(str)
}

// Verify checks str against hashed using the algorithm named by its tag.
func (m *Multi) Verify(hashed, str string) (bool, error) {
	h, err := m.lookup(hashed)
	if err != nil {
		return false, err
	}

	return h.Verify(hashed, str)
}

// Inspect parses hashed without verifying anything.
func (m *Multi) Inspect(hashed string) (Info, error) {
	h, err := m.lookup(hashed)
	if err != nil {
		return Info{}, err
	}

	return h.Inspect(hashed)
}

// NeedsRehash reports whether hashed should be replaced by a fresh Hash:
// either it uses another algorithm than the primary or weaker parameters.
func (m *Multi) NeedsRehash(hashed string) (bool, error) {
	h, err := m.lookup(hashed)
	if err != nil {
		return false, err
	}

	if h.Algorithm() != m.primary {
		if _, err := h.Inspect(hashed); err != nil {
			return false, err
		}
		return true, nil
	}

	return h.NeedsRehash(hashed)
}

func (m *Multi) lookup(hashed string) (Hasher, error) {
	alg, err := Identify(hashed)
	if err != nil {
		return nil, err
	}

	h, err := m.Hasher(alg)
	if errors.Is(err, ErrUnknownAlgorithm) {
		return nil, malformed("algorithm " + alg.String() + " is not enabled")
	}

	return h, err
}
