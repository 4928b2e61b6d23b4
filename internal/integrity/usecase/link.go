package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
)

type LinkInput struct {
	Fingerprint string
}

type LinkOutput struct {
	URL       string
	ExpiresAt time.Time
}

func (s *Usecase) Link(ctx context.Context, in LinkInput) (*LinkOutput, error) {
	ctx, span := s.startSpan(ctx, "Link")
	defer span.End()

	if _, err := s.authorize(ctx, actionRead); err != nil {
		return nil, err
	}

	if err := s.validateFingerprint(in.Fingerprint); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.repoBlob.Stat(ctx, in.Fingerprint); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Document not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo stat document", "fingerprint", in.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.linkTTL()
	now := s.clock.Now()
	url, err := s.repoBlob.Link(ctx, in.Fingerprint, ttl)
	if errors.Is(err, storage.ErrMissingSigner) {
		slog.WarnContext(ctx, "download link requested without a configured signer", "fingerprint", in.Fingerprint)
		return nil, goerror.NewUnavailable(err, "Download links are not available")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo presign document", "fingerprint", in.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LinkOutput{URL: url, ExpiresAt: now.Add(ttl)}, nil
}
