package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fpHello     = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	testSecret  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testConfig  = `
hash:
  primary: bcrypt
  bcrypt:
    cost: 4
    pepper: pepper
  argon2id:
    pepper: pepper
jwt:
  secret: ` + testSecret + `
  issuer: goseal
  audiences: goseal
  ttl_minutes: 5
`
)

type result struct {
	stdout string
	stderr string
	code   int
}

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	code := run(cmd)

	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

func TestFingerprint(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		res := execute(t, "hello", "fingerprint", "-o", "json")

		require.Equal(t, 0, res.code, res.stderr)
		var got fingerprintReport
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		assert.Equal(t, []fingerprintEntry{{Input: "-", Fingerprint: fpHello, Size: 5}}, got.Files)
	})

	t.Run("files with one missing", func(t *testing.T) {
		dir := t.TempDir()
		good := filepath.Join(dir, "hello.txt")
		require.NoError(t, os.WriteFile(good, []byte("hello"), 0o600))

		res := execute(t, "", "fingerprint", "-o", "json", good, filepath.Join(dir, "missing.txt"))

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "1 of 2 inputs could not be read")
		var got fingerprintReport
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		require.Len(t, got.Files, 2)
		assert.Equal(t, fpHello, got.Files[0].Fingerprint)
		assert.Empty(t, got.Files[1].Fingerprint)
		assert.NotEmpty(t, got.Files[1].Error)
	})

	t.Run("table", func(t *testing.T) {
		res := execute(t, "hello", "fingerprint")

		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, fpHello)
		assert.Contains(t, res.stdout, "FINGERPRINT")
	})

	t.Run("yaml", func(t *testing.T) {
		res := execute(t, "hello", "fingerprint", "--output", "yaml")

		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "fingerprint: "+fpHello)
	})

	t.Run("unknown output", func(t *testing.T) {
		res := execute(t, "hello", "fingerprint", "-o", "xml")

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "unsupported output")
	})
}

func TestHashVerifyInspect(t *testing.T) {
	cfg := writeConfig(t)

	res := execute(t, "s3cret\n", "hash", "--config", cfg, "-o", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var hashed hashReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &hashed))
	assert.Equal(t, "bcrypt", hashed.Algorithm)

	t.Run("match", func(t *testing.T) {
		res := execute(t, "s3cret\n", "verify", "--config", cfg, "--hash", hashed.Hash, "-o", "json")

		require.Equal(t, 0, res.code, res.stderr)
		assert.JSONEq(t, `{"match":true,"needs_rehash":false}`, res.stdout)
	})

	t.Run("mismatch", func(t *testing.T) {
		res := execute(t, "wrong", "verify", "--config", cfg, "--hash", hashed.Hash, "-o", "json")

		assert.Equal(t, 1, res.code)
		assert.JSONEq(t, `{"match":false,"needs_rehash":false}`, res.stdout)
		assert.Empty(t, res.stderr)
	})

	t.Run("malformed", func(t *testing.T) {
		res := execute(t, "s3cret", "verify", "--config", cfg, "--hash", "$2a$04$short")

		assert.Equal(t, exitMalformed, res.code)
		assert.Contains(t, res.stderr, "stored hash is corrupt")
		assert.Empty(t, res.stdout)
	})

	t.Run("empty secret", func(t *testing.T) {
		res := execute(t, "\n", "verify", "--config", cfg, "--hash", hashed.Hash)

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, errEmptySecret.Error())
	})

	t.Run("inspect", func(t *testing.T) {
		res := execute(t, "", "inspect", "--config", cfg, "--hash", hashed.Hash, "-o", "yaml")

		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "algorithm: bcrypt")
		assert.Contains(t, res.stdout, "cost: 4")
		assert.Contains(t, res.stdout, "needs_rehash: false")
	})

	t.Run("argon2id needs rehash under bcrypt primary", func(t *testing.T) {
		res := execute(t, "s3cret", "hash", "--config", cfg, "--algorithm", "argon2id", "-o", "json")
		require.Equal(t, 0, res.code, res.stderr)
		var argon hashReport
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &argon))

		res = execute(t, "s3cret", "verify", "--config", cfg, "--hash", argon.Hash, "-o", "json")

		require.Equal(t, 0, res.code, res.stderr)
		assert.JSONEq(t, `{"match":true,"needs_rehash":true}`, res.stdout)
	})

	t.Run("missing config file", func(t *testing.T) {
		res := execute(t, "s3cret", "hash", "--config", filepath.Join(t.TempDir(), "nope.yaml"))

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "load config")
	})
}

func TestToken(t *testing.T) {
	cfg := writeConfig(t)

	res := execute(t, "", "token", "--config", cfg, "--client", "billing", "--name", "Billing", "-o", "json")

	require.Equal(t, 0, res.code, res.stderr)
	var got tokenReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, "billing", got.ClientID)

	verifier, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(testSecret),
		Issuer:    "goseal",
		Audiences: []string{"goseal"},
		TTL:       5 * time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	claims, err := verifier.Verify(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "billing", claims.ClientID())
	assert.Equal(t, "Billing", claims.ClientName)
}
