package usecase

import (
	"context"
	"io"

	"github.com/shandysiswandi/goseal/internal/pkg/digest"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

type FingerprintInput struct {
	File io.Reader
}

type FingerprintOutput struct {
	Fingerprint string
	Size        int64
}

func (s *Usecase) Fingerprint(ctx context.Context, in FingerprintInput) (*FingerprintOutput, error) {
	ctx, span := s.startSpan(ctx, "Fingerprint")
	defer span.End()

	if _, err := s.authorize(ctx, actionRead); err != nil {
		return nil, err
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	res, err := digest.SumContext(ctx, s.limit(in.File))
	if err != nil {
		return nil, readError(ctx, err, s.maxSize())
	}

	return &FingerprintOutput{Fingerprint: res.Fingerprint, Size: res.Size}, nil
}
