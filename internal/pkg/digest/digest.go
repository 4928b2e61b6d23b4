package digest

import (
	"bytes"
	"context"
	_ "crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	godigest "github.com/opencontainers/go-digest"
)

// Size is the length of a rendered fingerprint.
const Size = 64

// ErrRead is returned when the payload cannot be fully read.
var ErrRead = errors.New("digest: failed to read payload")

// Result is a fingerprint together with the number of bytes it covers.
type Result struct {
	Fingerprint string
	Size        int64
}

// Fingerprint reads r to EOF and returns its SHA-256 fingerprint.
func Fingerprint(r io.Reader) (string, error) {
	res, err := Sum(r)
	if err != nil {
		return "", err
	}

	return res.Fingerprint, nil
}

// FingerprintBytes returns the fingerprint of an in-memory payload.
func FingerprintBytes(b []byte) string {
	return godigest.SHA256.FromBytes(b).Encoded()
}

// Sum reads r to EOF and returns the fingerprint and the payload size.
func Sum(r io.Reader) (Result, error) {
	if r == nil {
		r = bytes.NewReader(nil)
	}

	cr := &countingReader{r: r}
	d, err := godigest.SHA256.FromReader(cr)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	return Result{Fingerprint: d.Encoded(), Size: cr.n}, nil
}

// FingerprintContext is like Fingerprint but stops between reads once ctx is done.
func FingerprintContext(ctx context.Context, r io.Reader) (string, error) {
	res, err := SumContext(ctx, r)
	if err != nil {
		return "", err
	}

	return res.Fingerprint, nil
}

// SumContext is like Sum but stops between reads once ctx is done.
func SumContext(ctx context.Context, r io.Reader) (Result, error) {
	return Sum(&contextReader{ctx: ctx, r: r})
}

// Valid reports whether fp is a well-formed fingerprint.
func Valid(fp string) bool {
	return len(fp) == Size && godigest.SHA256.Validate(fp) == nil
}

// Equal compares two fingerprints in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if c.r == nil {
		return 0, io.EOF
	}

	return c.r.Read(p)
}
