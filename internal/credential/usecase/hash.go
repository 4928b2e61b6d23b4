package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
)

type HashInput struct {
	Secret    string `validate:"required"`
	Algorithm string `validate:"omitempty,algorithm"`
}

type HashOutput struct {
	Hash      string
	Algorithm string
}

func (s *Usecase) Hash(ctx context.Context, in HashInput) (*HashOutput, error) {
	ctx, span := s.startSpan(ctx, "Hash")
	defer span.End()

	if _, err := s.authorize(ctx, actionHash); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid hash payload", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	alg := s.hashers.Primary()
	if in.Algorithm != "" {
		var err error
		if alg, err = hash.ParseAlgorithm(in.Algorithm); err != nil {
			return nil, goerror.NewInvalidInput(nil, "algorithm", "algorithm is not supported")
		}
	}

	h, err := s.hashers.Hasher(alg)
	if err != nil {
		slog.WarnContext(ctx, "requested algorithm is not enabled", "algorithm", alg.String())
		return nil, goerror.NewInvalidInput(nil, "algorithm", "algorithm is not enabled")
	}

	hashed, err := s.pool.HashWith(ctx, h, in.Secret)
	if err != nil {
		if gerr := hashError(ctx, err); gerr != nil {
			return nil, gerr
		}
		slog.ErrorContext(ctx, "failed to hash secret", "algorithm", alg.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &HashOutput{Hash: hashed, Algorithm: alg.String()}, nil
}
