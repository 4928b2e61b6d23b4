package reporter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
)

type eventSink struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (s *eventSink) beforeSend(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *eventSink) all() []*sentry.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sentry.Event(nil), s.events...)
}

// withFakeInit swaps the SDK initializer and resets the process guard.
func withFakeInit(t *testing.T, sink *eventSink) *int {
	t.Helper()

	calls := 0
	prev := sentryInit
	sentryInit = func(o sentry.ClientOptions) error {
		calls++
		o.BeforeSend = sink.beforeSend
		return sentry.Init(o)
	}
	initialized.Store(false)

	t.Cleanup(func() {
		sentryInit = prev
		initialized.Store(false)
	})

	return &calls
}

func TestInit_OnlyOnce(t *testing.T) {
	// Arrange
	calls := withFakeInit(t, &eventSink{})

	// Act
	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for range 8 {
		wg.Go(func() {
			did, err := Init(Config{Environment: "test"})
			if err != nil {
				t.Errorf("Init() error = %v", err)
			}
			results <- did
		})
	}
	wg.Wait()
	close(results)

	// Assert
	winners := 0
	for did := range results {
		if did {
			winners++
		}
	}
	if winners != 1 || *calls != 1 {
		t.Fatalf("winners = %d, sdk init calls = %d; want 1 and 1", winners, *calls)
	}
	if !Initialized() {
		t.Fatal("Initialized() = false after Init")
	}
}

func TestInit_FailureCanRetry(t *testing.T) {
	withFakeInit(t, &eventSink{})
	sentryInit = func(sentry.ClientOptions) error { return errors.New("bad dsn") }

	if _, err := Init(Config{DSN: "::"}); err == nil {
		t.Fatal("Init() error = nil, want error")
	}
	if Initialized() {
		t.Fatal("Initialized() = true after a failed Init")
	}

	sentryInit = func(sentry.ClientOptions) error { return nil }
	if did, err := Init(Config{}); err != nil || !did {
		t.Fatalf("Init() = %v, %v; want true, nil", did, err)
	}
}

func TestCaptureError(t *testing.T) {
	sink := &eventSink{}
	withFakeInit(t, sink)

	// Before Init nothing is captured.
	CaptureError(context.Background(), errors.New("ignored"))

	if _, err := Init(Config{SampleRate: 1}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx := instrument.SetCorrelationID(context.Background(), "cid-42")
	CaptureError(ctx, errors.New("storage unreachable"))
	CaptureError(ctx, nil)
	CapturePanic(ctx, "boom")
	Flush(time.Second)

	events := sink.all()
	if len(events) != 2 {
		t.Fatalf("captured %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Tags["correlation_id"] != "cid-42" {
			t.Fatalf("event tags = %v", e.Tags)
		}
	}
}

func TestFlush_NotInitialized(t *testing.T) {
	withFakeInit(t, &eventSink{})

	if !Flush(time.Millisecond) {
		t.Fatal("Flush() = false before Init")
	}
}
