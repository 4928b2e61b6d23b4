// Package reporter sends server faults and panics to Sentry.
//
// Every entry point calls Init; only the first call in a process configures
// the SDK. Capture functions are no-ops until Init succeeded.
package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"go.uber.org/atomic"
)

// Config holds the Sentry client options used by Init.
type Config struct {
	// DSN is the project key. An empty DSN keeps the SDK inert.
	DSN string
	// Environment tags every event (local, staging, production).
	Environment string
	// Release tags every event with the running build.
	Release string
	// SampleRate is the fraction of error events sent, in (0, 1].
	SampleRate float64
	// Debug makes the SDK log its own activity.
	Debug bool
}

var (
	initialized atomic.Bool
	sentryInit  = sentry.Init
)

// Init configures Sentry once per process. It reports whether this call did
// the initialization; later calls return false, nil.
func Init(cfg Config) (bool, error) {
	if !initialized.CompareAndSwap(false, true) {
		return false, nil
	}

	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	err := sentryInit(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
	if err != nil {
		initialized.Store(false)
		return false, fmt.Errorf("reporter: sentry init: %w", err)
	}

	return true, nil
}

// Initialized reports whether Init has completed successfully.
func Initialized() bool {
	return initialized.Load()
}

// CaptureError sends err with the request correlation id as a tag.
func CaptureError(ctx context.Context, err error) {
	if err == nil || !initialized.Load() {
		return
	}

	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		tagScope(ctx, scope)
		hub.CaptureException(err)
	})
}

// CapturePanic sends a recovered panic value.
func CapturePanic(ctx context.Context, rvr any) {
	if rvr == nil || !initialized.Load() {
		return
	}

	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		tagScope(ctx, scope)
		hub.RecoverWithContext(ctx, rvr)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	if !initialized.Load() {
		return true
	}

	return sentry.Flush(timeout)
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}

	return sentry.CurrentHub().Clone()
}

func tagScope(ctx context.Context, scope *sentry.Scope) {
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		scope.SetTag("correlation_id", cID)
	}
}
