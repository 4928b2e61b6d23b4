package hash

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2id_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewArgon2id("pepper")

	first, err := h.Hash("s3cret")
	require.NoError(t, err)
	second, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "$argon2id$v=19$m=32768,t=3,p=2$"))

	ok, err := h.Verify(first, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(second, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(first, "S3cret")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewArgon2id("").Verify(first, "s3cret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2id_VerifyMalformed(t *testing.T) {
	t.Parallel()

	salt := "c2FsdHNhbHRzYWx0c2FsdA"                      // 16 bytes
	key := "a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5" // 33 bytes
	ok := func(params string) string {
		return "$argon2id$v=19$" + params + "$" + salt + "$" + key
	}

	tests := []struct {
		name   string
		stored string
	}{
		{name: "not a hash", stored: "not-a-valid-hash"},
		{name: "wrong tag", stored: strings.Replace(ok("m=32768,t=3,p=2"), "argon2id", "argon2i", 1)},
		{name: "missing section", stored: "$argon2id$v=19$m=32768,t=3,p=2$" + salt},
		{name: "bad version", stored: strings.Replace(ok("m=32768,t=3,p=2"), "v=19", "v=16", 1)},
		{name: "non numeric version", stored: strings.Replace(ok("m=32768,t=3,p=2"), "v=19", "v=x", 1)},
		{name: "non numeric memory", stored: ok("m=lots,t=3,p=2")},
		{name: "memory too low", stored: ok("m=1024,t=3,p=2")},
		{name: "memory too high", stored: ok("m=4194304,t=3,p=2")},
		{name: "iterations zero", stored: ok("m=32768,t=0,p=2")},
		{name: "iterations too high", stored: ok("m=32768,t=1000,p=2")},
		{name: "parallelism overflow", stored: ok("m=32768,t=3,p=300")},
		{name: "missing parameter", stored: ok("m=32768,t=3,x=2")},
		{name: "extra parameter", stored: ok("m=32768,t=3,p=2,k=1")},
		{name: "bad salt", stored: "$argon2id$v=19$m=32768,t=3,p=2$!!$" + key},
		{name: "short salt", stored: "$argon2id$v=19$m=32768,t=3,p=2$c2FsdA$" + key},
		{name: "short key", stored: "$argon2id$v=19$m=32768,t=3,p=2$" + salt + "$a2V5"},
		{name: "padded key", stored: ok("m=32768,t=3,p=2") + "="},
	}

	h := NewArgon2id("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := h.Verify(tt.stored, "s3cret")

			assert.False(t, got)
			assert.True(t, errors.Is(err, ErrMalformedHash), "error = %v", err)
		})
	}
}

func TestArgon2id_InspectAndNeedsRehash(t *testing.T) {
	t.Parallel()

	h := NewArgon2id("")
	stored, err := h.Hash("s3cret")
	require.NoError(t, err)

	info, err := h.Inspect(stored)
	require.NoError(t, err)
	assert.Equal(t, Info{Algorithm: AlgorithmArgon2id, Memory: 32 * 1024, Iterations: 3, Parallelism: 2}, info)

	rehash, err := h.NeedsRehash(stored)
	require.NoError(t, err)
	assert.False(t, rehash)

	weak := "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"
	rehash, err = h.NeedsRehash(weak)
	require.NoError(t, err)
	assert.True(t, rehash)
}
