package usecase

import (
	"context"
	"io"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/digest"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

type VerifyInput struct {
	File     io.Reader
	Expected string `validate:"required,fingerprint"`
}

type VerifyOutput struct {
	Fingerprint string
	Expected    string
	Match       bool
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if _, err := s.authorize(ctx, actionRead); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid verify payload", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	actual, err := digest.FingerprintContext(ctx, s.limit(in.File))
	if err != nil {
		return nil, readError(ctx, err, s.maxSize())
	}

	return &VerifyOutput{
		Fingerprint: actual,
		Expected:    in.Expected,
		Match:       digest.Equal(actual, in.Expected),
	}, nil
}
