package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shandysiswandi/goseal/internal/integrity/entity"
	"github.com/shandysiswandi/goseal/internal/pkg/digest"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
)

type StoreInput struct {
	File           io.Reader
	ContentType    string
	IdempotencyKey string `validate:"omitempty,max=128,printascii"`
}

type StoreOutput struct {
	Fingerprint  string `json:"fingerprint"`
	Size         int64  `json:"size"`
	Deduplicated bool   `json:"deduplicated"`
}

func (s *Usecase) Store(ctx context.Context, in StoreInput) (*StoreOutput, error) {
	ctx, span := s.startSpan(ctx, "Store")
	defer span.End()

	clm, err := s.authorize(ctx, actionWrite)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid store payload", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	if in.IdempotencyKey == "" {
		return s.store(ctx, clm, in)
	}

	key := "integrity:store:" + clm.ClientID() + ":" + in.IdempotencyKey
	res, err := s.idemp.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		out, err := s.store(ctx, clm, in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}, idempotency.WithReleaseOnFailure(), idempotency.WithStateTTL(s.idempotencyTTL()))

	var gerr *goerror.Error
	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("A request with this Idempotency-Key is still in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("A request with this Idempotency-Key already failed", goerror.CodeConflict)
	case errors.As(err, &gerr):
		return nil, err
	case err != nil && res.Payload == nil:
		slog.ErrorContext(ctx, "failed to track idempotency key", "error", err)
		return nil, goerror.NewUnavailable(err, "Idempotency tracking is unavailable")
	case err != nil:
		slog.WarnContext(ctx, "document stored but idempotency state not saved", "error", err)
	}

	var out StoreOutput
	if err := json.Unmarshal(res.Payload, &out); err != nil {
		slog.ErrorContext(ctx, "failed to decode idempotent result", "replayed", res.Replayed, "error", err)
		return nil, goerror.NewServer(err)
	}
	if res.Replayed {
		slog.InfoContext(ctx, "store request replayed", "fingerprint", out.Fingerprint)
	}

	return &out, nil
}

func (s *Usecase) store(ctx context.Context, clm *jwt.Claims, in StoreInput) (*StoreOutput, error) {
	data, err := io.ReadAll(s.limit(in.File))
	if err != nil {
		return nil, readError(ctx, err, s.maxSize())
	}

	doc := entity.Document{
		Fingerprint: digest.FingerprintBytes(data),
		Size:        int64(len(data)),
		ContentType: contentType(in.ContentType, data),
		StoredBy:    clm.ClientID(),
		StoredAt:    s.clock.Now(),
	}

	_, err = s.repoBlob.Stat(ctx, doc.Fingerprint)
	deduplicated := err == nil
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo stat document", "fingerprint", doc.Fingerprint, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !deduplicated {
		if err := s.repoBlob.Put(ctx, doc, bytes.NewReader(data)); err != nil {
			slog.ErrorContext(ctx, "failed to repo put document", "fingerprint", doc.Fingerprint, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	slog.InfoContext(ctx, "document stored", "fingerprint", doc.Fingerprint, "size", doc.Size, "deduplicated", deduplicated)

	evt := DocumentStoredEvent{
		EventID:      s.uid.Generate(),
		Fingerprint:  doc.Fingerprint,
		Size:         doc.Size,
		ContentType:  doc.ContentType,
		Deduplicated: deduplicated,
		ClientID:     clm.ClientID(),
		OccurredAt:   doc.StoredAt,
	}
	s.publishAsync(ctx, "publish document_stored", func(ctx context.Context) error {
		return s.repoMessaging.PublishDocumentStored(ctx, evt)
	})

	return &StoreOutput{Fingerprint: doc.Fingerprint, Size: doc.Size, Deduplicated: deduplicated}, nil
}

func contentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}
