package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shandysiswandi/goseal/internal/integrity/entity"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	metaStoredBy = "stored-by"
	metaStoredAt = "stored-at"
)

type Blob struct {
	storage storage.Storage
	bucket  string
	ins     instrument.Instrumentation
}

func NewBlob(s storage.Storage, bucket string, ins instrument.Instrumentation) *Blob {
	return &Blob{storage: s, bucket: bucket, ins: ins}
}

func (b *Blob) startSpan(ctx context.Context, name, fp string) (context.Context, trace.Span) {
	return b.ins.Tracer("integrity.outbound.blob").Start(ctx, name,
		trace.WithAttributes(attribute.String("document.fingerprint", fp)))
}

func (b *Blob) Stat(ctx context.Context, fp string) (*entity.Document, error) {
	ctx, span := b.startSpan(ctx, "Stat", fp)
	defer span.End()

	info, err := b.storage.StatObject(ctx, b.bucket, entity.ObjectKey(fp))
	if err != nil {
		return nil, b.fail(span, fp, err)
	}

	return toDocument(fp, info), nil
}

func (b *Blob) Put(ctx context.Context, doc entity.Document, body io.Reader) error {
	ctx, span := b.startSpan(ctx, "Put", doc.Fingerprint)
	defer span.End()

	_, err := b.storage.PutObject(ctx, b.bucket, entity.ObjectKey(doc.Fingerprint), body, storage.PutOptions{
		Size:        doc.Size,
		ContentType: doc.ContentType,
		Metadata: map[string]string{
			metaStoredBy: doc.StoredBy,
			metaStoredAt: doc.StoredAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return b.fail(span, doc.Fingerprint, err)
	}

	return nil
}

func (b *Blob) Open(ctx context.Context, fp string) (io.ReadCloser, error) {
	ctx, span := b.startSpan(ctx, "Open", fp)
	defer span.End()

	body, _, err := b.storage.GetObject(ctx, b.bucket, entity.ObjectKey(fp))
	if err != nil {
		return nil, b.fail(span, fp, err)
	}

	return body, nil
}

func (b *Blob) Remove(ctx context.Context, fp string) error {
	ctx, span := b.startSpan(ctx, "Remove", fp)
	defer span.End()

	if err := b.storage.DeleteObject(ctx, b.bucket, entity.ObjectKey(fp)); err != nil {
		return b.fail(span, fp, err)
	}

	return nil
}

func (b *Blob) Link(ctx context.Context, fp string, ttl time.Duration) (string, error) {
	ctx, span := b.startSpan(ctx, "Link", fp)
	defer span.End()

	url, err := b.storage.PresignGet(ctx, b.bucket, entity.ObjectKey(fp), ttl)
	if err != nil {
		return "", b.fail(span, fp, err)
	}

	return url, nil
}

func (b *Blob) fail(span trace.Span, fp string, err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("%w: document %s", goerror.ErrNotFound, fp)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func toDocument(fp string, info storage.ObjectInfo) *entity.Document {
	doc := &entity.Document{
		Fingerprint: fp,
		Size:        info.Size,
		ContentType: info.ContentType,
		StoredAt:    info.UpdatedAt,
	}

	// S3 and MinIO canonicalize metadata keys, GCS keeps them as written.
	for k, v := range info.Metadata {
		switch strings.ToLower(k) {
		case metaStoredBy:
			doc.StoredBy = v
		case metaStoredAt:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				doc.StoredAt = t
			}
		}
	}

	return doc
}
