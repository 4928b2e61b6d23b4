package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	objectCredentials = "credentials"

	actionHash   = "hash"
	actionVerify = "verify"
)

type CredentialCorruptedEvent struct {
	EventID    int64
	Reference  string
	Reason     string
	ClientID   string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishCredentialCorrupted(ctx context.Context, msg CredentialCorruptedEvent) error
}

type hashers interface {
	Primary() hash.Algorithm
	Hasher(alg hash.Algorithm) (hash.Hasher, error)
	Inspect(hashed string) (hash.Info, error)
	NeedsRehash(hashed string) (bool, error)
}

type pool interface {
	Hash(ctx context.Context, str string) (string, error)
	HashWith(ctx context.Context, h hash.Hash, str string) (string, error)
	Verify(ctx context.Context, hashed, str string) (bool, error)
}

// limiter counts failed verifications per client and caller address.
type limiter interface {
	Check(ctx context.Context, subject, ip string) error
	Fail(ctx context.Context, subject, ip string) error
	Reset(ctx context.Context, subject, ip string) error
	Remaining(ctx context.Context, subject, ip string) (int, error)
}

type referencer interface {
	Reference(str string) string
}

type Usecase struct {
	repoMessaging repoMessaging
	hashers       hashers
	pool          pool
	reference     referencer
	limiter       limiter
	validator     validator.Validator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	authorizer    authz.Authorizer
	goroutine     goroutine.Runner
}

type Dependency struct {
	RepoMessaging repoMessaging
	Hashers       hashers
	Pool          pool
	Reference     referencer
	Limiter       limiter
	Validator     validator.Validator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Authorizer    authz.Authorizer
	Goroutine     goroutine.Runner
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMessaging: dep.RepoMessaging,
		hashers:       dep.Hashers,
		pool:          dep.Pool,
		reference:     dep.Reference,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		authorizer:    dep.Authorizer,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) authorize(ctx context.Context, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	err := s.authorizer.Authorize(clm.ClientID(), objectCredentials, act)
	if errors.Is(err, authz.ErrDenied) {
		slog.WarnContext(ctx, "client not allowed", "client_id", clm.ClientID(), "object", objectCredentials, "action", act)
		return nil, goerror.NewBusiness("Client not allowed", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "client_id", clm.ClientID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return clm, nil
}

// hashError maps the known failures of the hashing pool and returns nil for
// anything else.
func hashError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, hash.ErrSecretTooLong):
		return goerror.NewInvalidInput(nil, "secret", "secret is too long for the algorithm")
	case errors.Is(err, hash.ErrResultUnknown):
		slog.WarnContext(ctx, "hash computation abandoned", "error", err)
		return goerror.NewUnavailable(err, "Credential service is busy, please retry")
	default:
		return nil
	}
}
