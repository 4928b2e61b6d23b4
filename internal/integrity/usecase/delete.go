package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

type DeleteInput struct {
	Fingerprint string
}

func (s *Usecase) Delete(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	clm, err := s.authorize(ctx, actionDelete)
	if err != nil {
		return err
	}

	if err := s.validateFingerprint(in.Fingerprint); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err = s.repoBlob.Remove(ctx, in.Fingerprint)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Document not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo remove document", "fingerprint", in.Fingerprint, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "document deleted", "fingerprint", in.Fingerprint, "client_id", clm.ClientID())
	return nil
}
