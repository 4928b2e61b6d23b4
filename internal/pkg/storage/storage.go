// Package storage stores and retrieves opaque objects in a bucket backed by
// S3, MinIO or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrMissingSigner indicates signed URL support is not configured.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")
	// ErrObjectNotFound indicates the bucket has no object under the key.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrInvalidLocation indicates an empty bucket or object key.
	ErrInvalidLocation = errors.New("storage: bucket and key are required")
)

// Storage is implemented by every driver. A missing object is always
// reported as ErrObjectNotFound and metadata keys always come back in
// lower case, whatever the backend does to them.
type Storage interface {
	io.Closer

	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// GetObject streams the object. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	// PresignGet returns a URL that downloads the object without credentials
	// until expiry passes.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions configures an upload. Size is required by MinIO for
// single-part uploads; -1 lets it fall back to multipart.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}

func checkLocation(bucket, key string) error {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidLocation
	}
	return nil
}

func lowerKeys(md map[string]string) map[string]string {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[strings.ToLower(k)] = v
	}
	return out
}

// opError prefixes err with the operation and location. ErrObjectNotFound
// stays matchable with errors.Is.
func opError(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("storage: %s %s/%s: %w", op, bucket, key, err)
}
