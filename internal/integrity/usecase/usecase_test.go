package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/integrity/entity"
	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type stored struct {
	doc  entity.Document
	data []byte
}

type fakeBlob struct {
	mu      sync.Mutex
	objects map[string]stored
	puts    int
	errStat error
	errPut  error
	errLink error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string]stored)}
}

func (f *fakeBlob) Stat(_ context.Context, fp string) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errStat != nil {
		return nil, f.errStat
	}
	obj, ok := f.objects[fp]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	doc := obj.doc
	return &doc, nil
}

func (f *fakeBlob) Put(_ context.Context, doc entity.Document, body io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errPut != nil {
		return f.errPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.puts++
	f.objects[doc.Fingerprint] = stored{doc: doc, data: data}
	return nil
}

func (f *fakeBlob) Open(_ context.Context, fp string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[fp]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (f *fakeBlob) Remove(_ context.Context, fp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[fp]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.objects, fp)
	return nil
}

func (f *fakeBlob) Link(_ context.Context, fp string, ttl time.Duration) (string, error) {
	if f.errLink != nil {
		return "", f.errLink
	}
	return "https://blob.test/sha256/" + fp + "?expires=" + ttl.String(), nil
}

// corrupt replaces the stored bytes while keeping the key.
func (f *fakeBlob) corrupt(fp string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj := f.objects[fp]
	obj.data = data
	f.objects[fp] = obj
}

type fakeMessaging struct {
	mu        sync.Mutex
	stored    []usecase.DocumentStoredEvent
	corrupted []usecase.DocumentCorruptedEvent
}

func (f *fakeMessaging) PublishDocumentStored(_ context.Context, msg usecase.DocumentStoredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, msg)
	return nil
}

func (f *fakeMessaging) PublishDocumentCorrupted(_ context.Context, msg usecase.DocumentCorruptedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corrupted = append(f.corrupted, msg)
	return nil
}

type fakeAuthz struct {
	denied map[string]bool
	err    error
}

func (f fakeAuthz) Authorize(_, _, act string) error {
	if f.err != nil {
		return f.err
	}
	if f.denied[act] {
		return authz.ErrDenied
	}
	return nil
}

// syncRunner runs tasks inline so tests can assert on their effects.
type syncRunner struct {
	errs []error
}

func (r *syncRunner) Go(ctx context.Context, _ string, f func(ctx context.Context) error) error {
	if err := f(ctx); err != nil {
		r.errs = append(r.errs, err)
	}
	return nil
}

type seqID struct{ next int64 }

func (s *seqID) Generate() int64 {
	s.next++
	return s.next
}

type fixture struct {
	uc        *usecase.Usecase
	blob      *fakeBlob
	messaging *fakeMessaging
}

type fixtureOption func(*usecase.Dependency)

func withAuthorizer(a authz.Authorizer) fixtureOption {
	return func(d *usecase.Dependency) { d.Authorizer = a }
}

func withIdempotency(i idempotency.Idempotency) fixtureOption {
	return func(d *usecase.Dependency) { d.Idempotency = i }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  integrity:
    max_size_bytes: 16
    link_ttl_minutes: 5
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{blob: newFakeBlob(), messaging: &fakeMessaging{}}
	dep := usecase.Dependency{
		RepoBlob:      f.blob,
		RepoMessaging: f.messaging,
		Idempotency:   idempotency.New(client, "test:"),
		Validator:     v,
		Config:        cfg,
		UID:           &seqID{},
		Clock:         clock.Fixed(now),
		Instrument:    instrument.NewNoop(),
		Authorizer:    fakeAuthz{},
		Goroutine:     &syncRunner{},
	}
	for _, opt := range opts {
		opt(&dep)
	}
	f.uc = usecase.New(dep)

	return f
}

func authed(clientID string) context.Context {
	var clm jwt.Claims
	clm.Subject = clientID
	return jwt.SetAuth(context.Background(), clm)
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "error %v is not a goerror", err)
	assert.Equal(t, code, gerr.Code(), "error: %v", err)
}
