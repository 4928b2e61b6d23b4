package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
)

type InspectInput struct {
	Hash string `validate:"required"`
}

type InspectOutput struct {
	Info        hash.Info
	NeedsRehash bool
}

func (s *Usecase) Inspect(ctx context.Context, in InspectInput) (*InspectOutput, error) {
	ctx, span := s.startSpan(ctx, "Inspect")
	defer span.End()

	if _, err := s.authorize(ctx, actionVerify); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	info, err := s.hashers.Inspect(in.Hash)
	if errors.Is(err, hash.ErrMalformedHash) {
		slog.WarnContext(ctx, "inspected credential is malformed", "reference", s.reference.Reference(in.Hash), "reason", err.Error())
		return nil, goerror.NewBusiness("Stored credential is corrupted", goerror.CodeCorrupted)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to inspect credential", "error", err)
		return nil, goerror.NewServer(err)
	}

	rehash, err := s.hashers.NeedsRehash(in.Hash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rehash", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &InspectOutput{Info: info, NeedsRehash: rehash}, nil
}
