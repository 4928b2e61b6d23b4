package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Store(t *testing.T) {
	t.Parallel()

	t.Run("stores then deduplicates", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		ctx := authed("svc-a")

		// Act
		first, errFirst := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello"), ContentType: "text/plain"})
		second, errSecond := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})

		// Assert
		require.NoError(t, errFirst)
		require.NoError(t, errSecond)
		assert.Equal(t, fpHello, first.Fingerprint)
		assert.False(t, first.Deduplicated)
		assert.True(t, second.Deduplicated)
		assert.Equal(t, 1, f.blob.puts)

		doc := f.blob.objects[fpHello].doc
		assert.Equal(t, "text/plain", doc.ContentType)
		assert.Equal(t, "svc-a", doc.StoredBy)
		assert.Equal(t, now, doc.StoredAt)

		require.Len(t, f.messaging.stored, 2)
		assert.Equal(t, int64(1), f.messaging.stored[0].EventID)
		assert.False(t, f.messaging.stored[0].Deduplicated)
		assert.True(t, f.messaging.stored[1].Deduplicated)
	})

	t.Run("detects content type", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		out, err := f.uc.Store(authed("svc-a"), usecase.StoreInput{
			File:        strings.NewReader("%PDF-1.7 tiny"),
			ContentType: "application/octet-stream",
		})

		require.NoError(t, err)
		assert.Equal(t, "application/pdf", f.blob.objects[out.Fingerprint].doc.ContentType)
	})

	t.Run("too large is not stored", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Store(authed("svc-a"), usecase.StoreInput{File: strings.NewReader(strings.Repeat("x", 17))})

		requireCode(t, err, goerror.CodePayloadTooLarge)
		assert.Empty(t, f.blob.objects)
		assert.Empty(t, f.messaging.stored)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.blob.errPut = errors.New("bucket unreachable")

		_, err := f.uc.Store(authed("svc-a"), usecase.StoreInput{File: strings.NewReader("hello")})

		requireCode(t, err, goerror.CodeInternal)
		assert.Empty(t, f.messaging.stored)
	})

	t.Run("idempotency key replay", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("svc-a")
		in := func() usecase.StoreInput {
			return usecase.StoreInput{File: strings.NewReader("hello"), IdempotencyKey: "req-1"}
		}

		first, errFirst := f.uc.Store(ctx, in())
		second, errSecond := f.uc.Store(ctx, in())

		require.NoError(t, errFirst)
		require.NoError(t, errSecond)
		assert.Equal(t, first, second)
		assert.False(t, second.Deduplicated)
		assert.Equal(t, 1, f.blob.puts)
		assert.Len(t, f.messaging.stored, 1)
	})

	t.Run("idempotency key is scoped per client", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		in := func() usecase.StoreInput {
			return usecase.StoreInput{File: strings.NewReader("hello"), IdempotencyKey: "req-1"}
		}

		_, errA := f.uc.Store(authed("svc-a"), in())
		_, errB := f.uc.Store(authed("svc-b"), in())

		require.NoError(t, errA)
		require.NoError(t, errB)
	})

	t.Run("failed attempt releases the key", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("svc-a")
		f.blob.errPut = errors.New("bucket unreachable")

		_, errFirst := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello"), IdempotencyKey: "req-2"})
		f.blob.errPut = nil
		out, errRetry := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello"), IdempotencyKey: "req-2"})

		requireCode(t, errFirst, goerror.CodeInternal)
		require.NoError(t, errRetry)
		assert.Equal(t, fpHello, out.Fingerprint)
	})

	t.Run("idempotency store unavailable", func(t *testing.T) {
		t.Parallel()

		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
		t.Cleanup(func() { _ = client.Close() })
		f := newFixture(t, withIdempotency(idempotency.New(client, "test:")))

		_, err := f.uc.Store(authed("svc-a"), usecase.StoreInput{File: strings.NewReader("hello"), IdempotencyKey: "req-3"})

		requireCode(t, err, goerror.CodeUnavailable)
	})

	t.Run("write not allowed", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, withAuthorizer(fakeAuthz{denied: map[string]bool{"write": true}}))

		_, err := f.uc.Store(authed("svc-a"), usecase.StoreInput{File: strings.NewReader("hello")})

		requireCode(t, err, goerror.CodeForbidden)
	})
}

func TestUsecase_Detail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := authed("svc-a")
	_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello"), ContentType: "text/plain"})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		out, err := f.uc.Detail(ctx, usecase.DetailInput{Fingerprint: fpHello})

		require.NoError(t, err)
		assert.Equal(t, int64(5), out.Size)
		assert.Equal(t, "svc-a", out.StoredBy)
		assert.Equal(t, "text/plain", out.ContentType)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.uc.Detail(ctx, usecase.DetailInput{Fingerprint: strings.Repeat("0", 64)})

		requireCode(t, err, goerror.CodeNotFound)
	})

	t.Run("malformed fingerprint", func(t *testing.T) {
		_, err := f.uc.Detail(ctx, usecase.DetailInput{Fingerprint: "../etc/passwd"})

		requireCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestUsecase_Link(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("svc-a")
		_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})
		require.NoError(t, err)

		out, err := f.uc.Link(ctx, usecase.LinkInput{Fingerprint: fpHello})

		require.NoError(t, err)
		assert.Contains(t, out.URL, fpHello)
		assert.Contains(t, out.URL, "expires=5m0s")
		assert.Equal(t, now.Add(5*time.Minute), out.ExpiresAt)
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Link(authed("svc-a"), usecase.LinkInput{Fingerprint: fpHello})

		requireCode(t, err, goerror.CodeNotFound)
	})

	t.Run("no signer", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("svc-a")
		_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})
		require.NoError(t, err)
		f.blob.errLink = storage.ErrMissingSigner

		_, err = f.uc.Link(ctx, usecase.LinkInput{Fingerprint: fpHello})

		requireCode(t, err, goerror.CodeUnavailable)
	})
}

func TestUsecase_Audit(t *testing.T) {
	t.Parallel()

	t.Run("intact", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("auditor")
		_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})
		require.NoError(t, err)

		out, err := f.uc.Audit(ctx, usecase.AuditInput{Fingerprint: fpHello})

		require.NoError(t, err)
		assert.True(t, out.Intact)
		assert.Equal(t, fpHello, out.Actual)
		assert.Empty(t, f.messaging.corrupted)
	})

	t.Run("corrupted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := authed("auditor")
		_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})
		require.NoError(t, err)
		f.blob.corrupt(fpHello, []byte("hellO"))

		out, err := f.uc.Audit(ctx, usecase.AuditInput{Fingerprint: fpHello})

		require.NoError(t, err)
		assert.False(t, out.Intact)
		assert.NotEqual(t, fpHello, out.Actual)
		require.Len(t, f.messaging.corrupted, 1)
		assert.Equal(t, fpHello, f.messaging.corrupted[0].Fingerprint)
		assert.Equal(t, out.Actual, f.messaging.corrupted[0].Actual)
		assert.Equal(t, "auditor", f.messaging.corrupted[0].ClientID)
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.uc.Audit(authed("auditor"), usecase.AuditInput{Fingerprint: fpHello})

		requireCode(t, err, goerror.CodeNotFound)
	})

	t.Run("audit not allowed", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, withAuthorizer(fakeAuthz{denied: map[string]bool{"audit": true}}))

		_, err := f.uc.Audit(authed("svc-a"), usecase.AuditInput{Fingerprint: fpHello})

		requireCode(t, err, goerror.CodeForbidden)
	})
}

func TestUsecase_Delete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := authed("svc-a")
	_, err := f.uc.Store(ctx, usecase.StoreInput{File: strings.NewReader("hello")})
	require.NoError(t, err)

	errFirst := f.uc.Delete(ctx, usecase.DeleteInput{Fingerprint: fpHello})
	errSecond := f.uc.Delete(ctx, usecase.DeleteInput{Fingerprint: fpHello})
	errAnon := f.uc.Delete(context.Background(), usecase.DeleteInput{Fingerprint: fpHello})

	require.NoError(t, errFirst)
	requireCode(t, errSecond, goerror.CodeNotFound)
	requireCode(t, errAnon, goerror.CodeUnauthorized)
}
