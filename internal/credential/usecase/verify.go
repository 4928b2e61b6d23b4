package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/ratelimit"
	"github.com/shandysiswandi/goseal/internal/pkg/reporter"
)

type VerifyInput struct {
	Secret   string `validate:"required"`
	Hash     string `validate:"required"`
	ClientIP string
}

type VerifyOutput struct {
	Match             bool
	NeedsRehash       bool
	RemainingAttempts int
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	clm, err := s.authorize(ctx, actionVerify)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid verify payload", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	subject := clm.ClientID()
	if err := s.limiter.Check(ctx, subject, in.ClientIP); err != nil {
		return nil, s.limitError(ctx, err)
	}

	match, err := s.pool.Verify(ctx, in.Hash, in.Secret)
	if errors.Is(err, hash.ErrMalformedHash) {
		return nil, s.corrupted(ctx, subject, in.Hash, err)
	}
	if err != nil {
		if gerr := hashError(ctx, err); gerr != nil {
			return nil, gerr
		}
		slog.ErrorContext(ctx, "failed to verify secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !match {
		if err := s.limiter.Fail(ctx, subject, in.ClientIP); err != nil && !errors.Is(err, ratelimit.ErrRateLimited) {
			return nil, s.limitError(ctx, err)
		}

		remaining, err := s.limiter.Remaining(ctx, subject, in.ClientIP)
		if err != nil {
			slog.WarnContext(ctx, "failed to read remaining attempts", "error", err)
		}

		slog.InfoContext(ctx, "credential mismatch", "client_id", subject, "remaining_attempts", remaining)
		return &VerifyOutput{Match: false, RemainingAttempts: remaining}, nil
	}

	if err := s.limiter.Reset(ctx, subject, in.ClientIP); err != nil {
		slog.WarnContext(ctx, "failed to reset failed attempts", "client_id", subject, "error", err)
	}

	rehash, err := s.hashers.NeedsRehash(in.Hash)
	if err != nil {
		slog.WarnContext(ctx, "failed to check rehash", "error", err)
	}

	return &VerifyOutput{Match: true, NeedsRehash: rehash}, nil
}

func (s *Usecase) limitError(ctx context.Context, err error) error {
	if errors.Is(err, ratelimit.ErrRateLimited) {
		slog.WarnContext(ctx, "credential verification rate limited")
		return goerror.NewBusiness("Too many failed attempts, please retry later", goerror.CodeTooManyRequest)
	}

	slog.ErrorContext(ctx, "rate limiter unavailable", "error", err)
	return goerror.NewUnavailable(err, "Credential verification is unavailable")
}

// corrupted records a stored hash that cannot be parsed. Only an HMAC
// reference of the value leaves this function.
func (s *Usecase) corrupted(ctx context.Context, clientID, stored string, cause error) error {
	ref := s.reference.Reference(stored)

	slog.ErrorContext(ctx, "stored credential is corrupted", "reference", ref, "client_id", clientID, "reason", cause.Error())
	reporter.CaptureError(ctx, fmt.Errorf("credential %s: %w", ref, cause))

	evt := CredentialCorruptedEvent{
		EventID:    s.uid.Generate(),
		Reference:  ref,
		Reason:     cause.Error(),
		ClientID:   clientID,
		OccurredAt: s.clock.Now(),
	}
	err := s.goroutine.Go(context.WithoutCancel(ctx), "publish credential_corrupted", func(ctx context.Context) error {
		return s.repoMessaging.PublishCredentialCorrupted(ctx, evt)
	})
	if err != nil {
		slog.WarnContext(ctx, "event dropped", "task", "publish credential_corrupted", "error", err)
	}

	return goerror.NewBusiness("Stored credential is corrupted", goerror.CodeCorrupted)
}
