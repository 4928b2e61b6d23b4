package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP in the background. The returned channel closes on
// SIGINT, SIGTERM or SIGHUP, or when the listener fails; either way the
// caller is expected to call Stop.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	sigCtx, stopSignals := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	failed := make(chan struct{})
	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			close(failed)
		}
	}()

	go func() {
		defer close(done)
		defer stopSignals()

		select {
		case <-sigCtx.Done():
			slog.Info("shutdown signal received")
		case <-failed:
		}
	}()

	return done
}

// Stop stops accepting requests, drains in-flight requests and background
// publishes, then releases resources in reverse order of acquisition. ctx
// bounds the whole sequence.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "draining background tasks")
	if err := a.goroutine.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "background tasks did not drain cleanly", "error", err)
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
