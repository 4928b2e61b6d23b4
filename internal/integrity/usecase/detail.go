package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

type DetailInput struct {
	Fingerprint string
}

type DetailOutput struct {
	Fingerprint string
	Size        int64
	ContentType string
	StoredBy    string
	StoredAt    time.Time
}

func (s *Usecase) Detail(ctx context.Context, in DetailInput) (*DetailOutput, error) {
	ctx, span := s.startSpan(ctx, "Detail")
	defer span.End()

	if _, err := s.authorize(ctx, actionRead); err != nil {
		return nil, err
	}

	if err := s.validateFingerprint(in.Fingerprint); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	doc, err := s.repoBlob.Stat(ctx, in.Fingerprint)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Document not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo stat document", "fingerprint", in.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DetailOutput{
		Fingerprint: doc.Fingerprint,
		Size:        doc.Size,
		ContentType: doc.ContentType,
		StoredBy:    doc.StoredBy,
		StoredAt:    doc.StoredAt,
	}, nil
}
