package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSOptions configures NewGCS. Without GoogleAccessID and PrivateKey the
// adapter cannot presign and PresignGet returns ErrMissingSigner.
type GCSOptions struct {
	// Client is used as is when set; otherwise one is created from the
	// ambient Google credentials.
	Client         *gcs.Client
	GoogleAccessID string
	PrivateKey     []byte
}

// GCSAdapter is the Storage driver for Google Cloud Storage.
type GCSAdapter struct {
	client   *gcs.Client
	accessID string
	key      []byte
	now      func() time.Time
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		var err error
		if client, err = gcs.NewClient(ctx); err != nil {
			return nil, err
		}
	}

	g := &GCSAdapter{client: client, now: time.Now}
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		g.accessID, g.key = opts.GoogleAccessID, opts.PrivateKey
	}
	return g, nil
}

func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := checkLocation(bucket, key); err != nil {
		return ObjectInfo{}, err
	}

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = lowerKeys(opts.Metadata)

	if _, err := io.Copy(w, r); err != nil {
		return ObjectInfo{}, opError("put", bucket, key, errors.Join(err, w.Close()))
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, opError("put", bucket, key, err)
	}

	if attrs := w.Attrs(); attrs != nil {
		return gcsInfo(attrs), nil
	}
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        opts.Size,
		ContentType: opts.ContentType,
		Metadata:    lowerKeys(opts.Metadata),
	}, nil
}

// GetObject fetches the attributes separately because the reader only
// carries a subset of them and no user metadata.
func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := g.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	rd, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, opError("get", bucket, key, gcsNotFound(err))
	}
	return rd, info, nil
}

func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := checkLocation(bucket, key); err != nil {
		return ObjectInfo{}, err
	}

	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, opError("stat", bucket, key, gcsNotFound(err))
	}
	return gcsInfo(attrs), nil
}

func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := checkLocation(bucket, key); err != nil {
		return err
	}
	return opError("delete", bucket, key, gcsNotFound(g.client.Bucket(bucket).Object(key).Delete(ctx)))
}

func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := checkLocation(bucket, key); err != nil {
		return "", err
	}
	if g.accessID == "" {
		return "", ErrMissingSigner
	}

	u, err := gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        g.now().Add(expiry),
		GoogleAccessID: g.accessID,
		PrivateKey:     g.key,
	})
	if err != nil {
		return "", opError("presign", bucket, key, err)
	}
	return u, nil
}

func (g *GCSAdapter) Close() error { return g.client.Close() }

func gcsInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    lowerKeys(attrs.Metadata),
		UpdatedAt:   attrs.Updated,
	}
}

func gcsNotFound(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
