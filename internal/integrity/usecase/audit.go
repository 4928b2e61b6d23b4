package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/digest"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/reporter"
)

// ErrDocumentCorrupted is reported when a stored document no longer hashes
// to the fingerprint it is stored under.
var ErrDocumentCorrupted = errors.New("stored document is corrupted")

type AuditInput struct {
	Fingerprint string
}

type AuditOutput struct {
	Fingerprint string
	Actual      string
	Size        int64
	Intact      bool
}

func (s *Usecase) Audit(ctx context.Context, in AuditInput) (*AuditOutput, error) {
	ctx, span := s.startSpan(ctx, "Audit")
	defer span.End()

	clm, err := s.authorize(ctx, actionAudit)
	if err != nil {
		return nil, err
	}

	if err := s.validateFingerprint(in.Fingerprint); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	body, err := s.repoBlob.Open(ctx, in.Fingerprint)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Document not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo open document", "fingerprint", in.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer func() {
		if err := body.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close stored document", "fingerprint", in.Fingerprint, "error", err)
		}
	}()

	res, err := digest.SumContext(ctx, body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read stored document", "fingerprint", in.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &AuditOutput{
		Fingerprint: in.Fingerprint,
		Actual:      res.Fingerprint,
		Size:        res.Size,
		Intact:      digest.Equal(res.Fingerprint, in.Fingerprint),
	}
	if out.Intact {
		return out, nil
	}

	slog.ErrorContext(ctx, "stored document is corrupted", "fingerprint", in.Fingerprint, "actual", res.Fingerprint)
	reporter.CaptureError(ctx, fmt.Errorf("%w: %s", ErrDocumentCorrupted, in.Fingerprint))

	evt := DocumentCorruptedEvent{
		EventID:     s.uid.Generate(),
		Fingerprint: in.Fingerprint,
		Actual:      res.Fingerprint,
		ClientID:    clm.ClientID(),
		OccurredAt:  s.clock.Now(),
	}
	s.publishAsync(ctx, "publish document_corrupted", func(ctx context.Context) error {
		return s.repoMessaging.PublishDocumentCorrupted(ctx, evt)
	})

	return out, nil
}
