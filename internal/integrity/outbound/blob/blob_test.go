package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goseal/internal/integrity/entity"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	storage.Storage

	bucket, key string
	opts        storage.PutOptions
	info        storage.ObjectInfo
	err         error
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	f.bucket, f.key, f.opts = bucket, key, opts
	_, _ = io.Copy(io.Discard, r)
	return storage.ObjectInfo{}, f.err
}

func (f *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	f.bucket, f.key = bucket, key
	return f.info, f.err
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, key string) error {
	f.bucket, f.key = bucket, key
	return f.err
}

func (f *fakeStorage) PresignGet(_ context.Context, _, key string, expiry time.Duration) (string, error) {
	return "https://signed/" + key + "?ttl=" + expiry.String(), f.err
}

func TestBlob_Put(t *testing.T) {
	t.Parallel()

	// Arrange
	fs := &fakeStorage{}
	b := NewBlob(fs, "docs", instrument.NewNoop())
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("WIB", 7*3600))

	// Act
	err := b.Put(context.Background(), entity.Document{
		Fingerprint: "abc",
		Size:        5,
		ContentType: "text/plain",
		StoredBy:    "svc-a",
		StoredAt:    at,
	}, strings.NewReader("hello"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "docs", fs.bucket)
	assert.Equal(t, "sha256/abc", fs.key)
	assert.Equal(t, int64(5), fs.opts.Size)
	assert.Equal(t, "svc-a", fs.opts.Metadata["stored-by"])
	assert.Equal(t, "2026-02-02T21:05:06Z", fs.opts.Metadata["stored-at"])
}

func TestBlob_Stat(t *testing.T) {
	t.Parallel()

	t.Run("canonicalized metadata keys", func(t *testing.T) {
		t.Parallel()

		fs := &fakeStorage{info: storage.ObjectInfo{
			Size:        5,
			ContentType: "text/plain",
			UpdatedAt:   time.Unix(10, 0),
			Metadata:    map[string]string{"Stored-By": "svc-a", "Stored-At": "2026-02-02T21:05:06Z"},
		}}
		b := NewBlob(fs, "docs", instrument.NewNoop())

		doc, err := b.Stat(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, "svc-a", doc.StoredBy)
		assert.Equal(t, time.Date(2026, 2, 2, 21, 5, 6, 0, time.UTC), doc.StoredAt)
	})

	t.Run("falls back to object time", func(t *testing.T) {
		t.Parallel()

		fs := &fakeStorage{info: storage.ObjectInfo{UpdatedAt: time.Unix(10, 0)}}
		b := NewBlob(fs, "docs", instrument.NewNoop())

		doc, err := b.Stat(context.Background(), "abc")

		require.NoError(t, err)
		assert.True(t, doc.StoredAt.Equal(time.Unix(10, 0)))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		fs := &fakeStorage{err: errors.Join(storage.ErrObjectNotFound, errors.New("NoSuchKey"))}
		b := NewBlob(fs, "docs", instrument.NewNoop())

		_, err := b.Stat(context.Background(), "abc")

		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("other failure passes through", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("timeout")
		b := NewBlob(&fakeStorage{err: errBoom}, "docs", instrument.NewNoop())

		_, err := b.Stat(context.Background(), "abc")

		assert.ErrorIs(t, err, errBoom)
		assert.NotErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestBlob_RemoveAndLink(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{}
	b := NewBlob(fs, "docs", instrument.NewNoop())

	errRemove := b.Remove(context.Background(), "abc")
	url, errLink := b.Link(context.Background(), "abc", time.Minute)

	require.NoError(t, errRemove)
	require.NoError(t, errLink)
	assert.Equal(t, "sha256/abc", fs.key)
	assert.Equal(t, "https://signed/sha256/abc?ttl=1m0s", url)
}
