package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goseal/internal/integrity/entity"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	objectDocuments = "documents"

	actionRead   = "read"
	actionWrite  = "write"
	actionAudit  = "audit"
	actionDelete = "delete"

	defaultMaxSizeBytes   int64 = 32 << 20
	defaultLinkTTL              = 15 * time.Minute
	defaultIdempotencyTTL       = time.Hour
)

type DocumentStoredEvent struct {
	EventID      int64
	Fingerprint  string
	Size         int64
	ContentType  string
	Deduplicated bool
	ClientID     string
	OccurredAt   time.Time
}

type DocumentCorruptedEvent struct {
	EventID     int64
	Fingerprint string
	Actual      string
	ClientID    string
	OccurredAt  time.Time
}

type repoMessaging interface {
	PublishDocumentStored(ctx context.Context, msg DocumentStoredEvent) error
	PublishDocumentCorrupted(ctx context.Context, msg DocumentCorruptedEvent) error
}

// repoBlob reports a missing document as goerror.ErrNotFound.
type repoBlob interface {
	Stat(ctx context.Context, fp string) (*entity.Document, error)
	Put(ctx context.Context, doc entity.Document, body io.Reader) error
	Open(ctx context.Context, fp string) (io.ReadCloser, error)
	Remove(ctx context.Context, fp string) error
	Link(ctx context.Context, fp string, ttl time.Duration) (string, error)
}

type Usecase struct {
	repoBlob      repoBlob
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	authorizer    authz.Authorizer
	goroutine     goroutine.Runner
}

type Dependency struct {
	RepoBlob      repoBlob
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Authorizer    authz.Authorizer
	Goroutine     goroutine.Runner
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoBlob:      dep.RepoBlob,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		authorizer:    dep.Authorizer,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("integrity.usecase").Start(ctx, name)
}

func (s *Usecase) authorize(ctx context.Context, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	err := s.authorizer.Authorize(clm.ClientID(), objectDocuments, act)
	if errors.Is(err, authz.ErrDenied) {
		slog.WarnContext(ctx, "client not allowed", "client_id", clm.ClientID(), "object", objectDocuments, "action", act)
		return nil, goerror.NewBusiness("Client not allowed", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "client_id", clm.ClientID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return clm, nil
}

func (s *Usecase) validateFingerprint(fp string) error {
	return s.validator.Validate(struct {
		Fingerprint string `validate:"required,fingerprint"`
	}{Fingerprint: fp})
}

func (s *Usecase) maxSize() int64 {
	if v := s.cfg.GetInt64("modules.integrity.max_size_bytes"); v > 0 {
		return v
	}
	return defaultMaxSizeBytes
}

func (s *Usecase) linkTTL() time.Duration {
	if v := s.cfg.GetMinute("modules.integrity.link_ttl_minutes"); v > 0 {
		return v
	}
	return defaultLinkTTL
}

func (s *Usecase) idempotencyTTL() time.Duration {
	if v := s.cfg.GetMinute("modules.integrity.idempotency_ttl_minutes"); v > 0 {
		return v
	}
	return defaultIdempotencyTTL
}

// publishAsync runs fn after the request is answered. The context keeps the
// request values (correlation id, span) but not its cancellation.
func (s *Usecase) publishAsync(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := s.goroutine.Go(context.WithoutCancel(ctx), name, fn); err != nil {
		slog.WarnContext(ctx, "event dropped", "task", name, "error", err)
	}
}
