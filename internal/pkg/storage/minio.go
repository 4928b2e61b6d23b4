package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOOptions configures NewMinIO. Endpoint is host[:port] without scheme.
type MinIOOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	UseSSL       bool
}

// MinIOAdapter is the Storage driver for MinIO.
type MinIOAdapter struct {
	client *minio.Client
}

func NewMinIO(opts MinIOOptions) (*MinIOAdapter, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOAdapter{client: client}, nil
}

func (m *MinIOAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := checkLocation(bucket, key); err != nil {
		return ObjectInfo{}, err
	}

	up, err := m.client.PutObject(ctx, bucket, key, r, opts.Size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: lowerKeys(opts.Metadata),
	})
	if err != nil {
		return ObjectInfo{}, opError("put", bucket, key, err)
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        up.Size,
		ETag:        up.ETag,
		ContentType: opts.ContentType,
		Metadata:    lowerKeys(opts.Metadata),
		UpdatedAt:   up.LastModified,
	}, nil
}

// GetObject stats before returning because minio-go defers the request
// until the first read, which would hide a missing key.
func (m *MinIOAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := checkLocation(bucket, key); err != nil {
		return nil, ObjectInfo{}, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, opError("get", bucket, key, minioNotFound(err))
	}

	st, err := obj.Stat()
	if err != nil {
		return nil, ObjectInfo{}, errors.Join(opError("get", bucket, key, minioNotFound(err)), obj.Close())
	}
	return obj, minioInfo(bucket, key, st), nil
}

func (m *MinIOAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := checkLocation(bucket, key); err != nil {
		return ObjectInfo{}, err
	}

	st, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, opError("stat", bucket, key, minioNotFound(err))
	}
	return minioInfo(bucket, key, st), nil
}

// DeleteObject reports ErrObjectNotFound for a missing key. MinIO itself
// acknowledges such deletes, so the key is checked first.
func (m *MinIOAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, err := m.StatObject(ctx, bucket, key); err != nil {
		return err
	}
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	return opError("delete", bucket, key, minioNotFound(err))
}

func (m *MinIOAdapter) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := checkLocation(bucket, key); err != nil {
		return "", err
	}

	u, err := m.client.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", opError("presign", bucket, key, err)
	}
	return u.String(), nil
}

func (m *MinIOAdapter) Close() error { return nil }

// minioInfo reads user metadata from UserMetadata, which minio-go fills
// with the X-Amz-Meta- prefix already stripped.
func minioInfo(bucket, key string, st minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        st.Size,
		ETag:        st.ETag,
		ContentType: st.ContentType,
		Metadata:    lowerKeys(st.UserMetadata),
		UpdatedAt:   st.LastModified,
	}
}

func minioNotFound(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket") {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
