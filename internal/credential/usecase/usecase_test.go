package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/credential/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/ratelimit"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type fakeMessaging struct {
	mu     sync.Mutex
	events []usecase.CredentialCorruptedEvent
}

func (f *fakeMessaging) PublishCredentialCorrupted(_ context.Context, msg usecase.CredentialCorruptedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return nil
}

type fakeAuthz struct{ denied map[string]bool }

func (f fakeAuthz) Authorize(_, _, act string) error {
	if f.denied[act] {
		return authz.ErrDenied
	}
	return nil
}

type syncRunner struct{}

func (syncRunner) Go(ctx context.Context, _ string, f func(ctx context.Context) error) error {
	_ = f(ctx)
	return nil
}

type fixedID int64

func (f fixedID) Generate() int64 { return int64(f) }

type fixture struct {
	uc        *usecase.Usecase
	messaging *fakeMessaging
	hmac      *hash.HMACSHA256
	bcrypt    *hash.Bcrypt
	argon     *hash.Argon2id
}

type fixtureConfig struct {
	primary     hash.Algorithm
	maxAttempts int
	redisAddr   string
	poolTimeout time.Duration
	authz       authz.Authorizer
}

func newFixture(t *testing.T, opts ...func(*fixtureConfig)) *fixture {
	t.Helper()

	fc := fixtureConfig{primary: hash.AlgorithmBcrypt, maxAttempts: 3, authz: fakeAuthz{}}
	for _, opt := range opts {
		opt(&fc)
	}
	if fc.redisAddr == "" {
		fc.redisAddr = miniredis.RunT(t).Addr()
	}

	client := redis.NewClient(&redis.Options{Addr: fc.redisAddr, MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	f := &fixture{
		messaging: &fakeMessaging{},
		hmac:      hash.NewHMACSHA256("reference-secret"),
		bcrypt:    hash.NewBcrypt(bcrypt.MinCost, ""),
		argon:     hash.NewArgon2id(""),
	}

	multi, err := hash.NewMulti(fc.primary, f.bcrypt, f.argon)
	require.NoError(t, err)

	f.uc = usecase.New(usecase.Dependency{
		RepoMessaging: f.messaging,
		Hashers:       multi,
		Pool:          hash.NewPool(multi, 2, fc.poolTimeout),
		Reference:     f.hmac,
		Limiter: ratelimit.New(client, f.hmac, ratelimit.Config{
			Prefix:      "test:rl:",
			MaxAttempts: fc.maxAttempts,
			Window:      time.Minute,
		}),
		Validator:  v,
		UID:        fixedID(99),
		Clock:      clock.Fixed(now),
		Instrument: instrument.NewNoop(),
		Authorizer: fc.authz,
		Goroutine:  syncRunner{},
	})

	return f
}

func authed(clientID string) context.Context {
	var clm jwt.Claims
	clm.Subject = clientID
	return jwt.SetAuth(context.Background(), clm)
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "error %v is not a goerror", err)
	assert.Equal(t, code, gerr.Code(), "error: %v", err)
}

func TestUsecase_Hash(t *testing.T) {
	t.Parallel()

	t.Run("primary algorithm", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{Secret: "s3cret"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "bcrypt", out.Algorithm)
		ok, err := f.bcrypt.Verify(out.Hash, "s3cret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("requested algorithm", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		out, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{Secret: "s3cret", Algorithm: "argon2id"})

		require.NoError(t, err)
		assert.Equal(t, "argon2id", out.Algorithm)
		assert.True(t, strings.HasPrefix(out.Hash, "$argon2id$"))
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{Secret: "s3cret", Algorithm: "md5"})

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("empty secret", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{})

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("secret too long for bcrypt", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{Secret: strings.Repeat("a", 73)})

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, func(c *fixtureConfig) { c.authz = fakeAuthz{denied: map[string]bool{"hash": true}} })

		_, err := f.uc.Hash(authed("svc-a"), usecase.HashInput{Secret: "s3cret"})

		requireCode(t, err, goerror.CodeForbidden)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Hash(context.Background(), usecase.HashInput{Secret: "s3cret"})

		requireCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestUsecase_Verify(t *testing.T) {
	t.Parallel()

	t.Run("match", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		stored, err := f.bcrypt.Hash("s3cret")
		require.NoError(t, err)

		out, err := f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.1"})

		require.NoError(t, err)
		assert.True(t, out.Match)
		assert.False(t, out.NeedsRehash)
	})

	t.Run("match on a non primary algorithm needs rehash", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, func(c *fixtureConfig) { c.primary = hash.AlgorithmArgon2id })
		stored, err := f.bcrypt.Hash("s3cret")
		require.NoError(t, err)

		out, err := f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.1"})

		require.NoError(t, err)
		assert.True(t, out.Match)
		assert.True(t, out.NeedsRehash)
	})

	t.Run("mismatch counts down then limits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		stored, err := f.bcrypt.Hash("s3cret")
		require.NoError(t, err)
		ctx := authed("svc-a")
		in := usecase.VerifyInput{Secret: "wrong", Hash: stored, ClientIP: "10.0.0.1"}

		var remaining []int
		for range 3 {
			out, err := f.uc.Verify(ctx, in)
			require.NoError(t, err)
			assert.False(t, out.Match)
			remaining = append(remaining, out.RemainingAttempts)
		}
		_, errLimited := f.uc.Verify(ctx, in)
		_, errOtherIP := f.uc.Verify(ctx, usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.2"})

		assert.Equal(t, []int{2, 1, 0}, remaining)
		requireCode(t, errLimited, goerror.CodeTooManyRequest)
		assert.NoError(t, errOtherIP)
	})

	t.Run("match resets the window", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		stored, err := f.bcrypt.Hash("s3cret")
		require.NoError(t, err)
		ctx := authed("svc-a")
		wrong := usecase.VerifyInput{Secret: "wrong", Hash: stored, ClientIP: "10.0.0.1"}

		for range 2 {
			_, err := f.uc.Verify(ctx, wrong)
			require.NoError(t, err)
		}
		_, err = f.uc.Verify(ctx, usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.1"})
		require.NoError(t, err)
		out, err := f.uc.Verify(ctx, wrong)

		require.NoError(t, err)
		assert.Equal(t, 2, out.RemainingAttempts)
	})

	t.Run("malformed stored hash is corrupted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		stored := "$2b$04$tooshort"

		out, err := f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.1"})

		assert.Nil(t, out)
		requireCode(t, err, goerror.CodeCorrupted)
		require.Len(t, f.messaging.events, 1)
		evt := f.messaging.events[0]
		assert.Equal(t, f.hmac.Reference(stored), evt.Reference)
		assert.NotContains(t, evt.Reason, stored)
		assert.Equal(t, int64(99), evt.EventID)
		assert.Equal(t, "svc-a", evt.ClientID)
		assert.Equal(t, now, evt.OccurredAt)
	})

	t.Run("unknown algorithm tag is corrupted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret", Hash: "$scrypt$ln=15$abc", ClientIP: "10.0.0.1"})

		requireCode(t, err, goerror.CodeCorrupted)
	})

	t.Run("limiter unavailable fails closed", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, func(c *fixtureConfig) { c.redisAddr = "127.0.0.1:1" })
		stored, err := f.bcrypt.Hash("s3cret")
		require.NoError(t, err)

		_, err = f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret", Hash: stored, ClientIP: "10.0.0.1"})

		requireCode(t, err, goerror.CodeUnavailable)
	})

	t.Run("missing hash", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Verify(authed("svc-a"), usecase.VerifyInput{Secret: "s3cret"})

		requireCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestUsecase_Inspect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := authed("svc-a")
	bc, err := f.bcrypt.Hash("s3cret")
	require.NoError(t, err)
	ar, err := f.argon.Hash("s3cret")
	require.NoError(t, err)

	t.Run("bcrypt", func(t *testing.T) {
		out, err := f.uc.Inspect(ctx, usecase.InspectInput{Hash: bc})

		require.NoError(t, err)
		assert.Equal(t, hash.AlgorithmBcrypt, out.Info.Algorithm)
		assert.Equal(t, bcrypt.MinCost, out.Info.Cost)
		assert.False(t, out.NeedsRehash)
	})

	t.Run("argon2id", func(t *testing.T) {
		out, err := f.uc.Inspect(ctx, usecase.InspectInput{Hash: ar})

		require.NoError(t, err)
		assert.Equal(t, hash.AlgorithmArgon2id, out.Info.Algorithm)
		assert.Equal(t, uint32(32*1024), out.Info.Memory)
		assert.Equal(t, uint32(3), out.Info.Iterations)
		assert.Equal(t, uint8(2), out.Info.Parallelism)
		assert.True(t, out.NeedsRehash)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := f.uc.Inspect(ctx, usecase.InspectInput{Hash: "plaintext"})

		requireCode(t, err, goerror.CodeCorrupted)
		assert.Empty(t, f.messaging.events)
	})
}
