package goroutine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_collects_errors(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(4)
	errBoom := errors.New("boom")
	var ran atomic.Int32

	require.NoError(t, m.Go(context.Background(), "ok", func(context.Context) error {
		ran.Add(1)
		return nil
	}))
	require.NoError(t, m.Go(context.Background(), "fails", func(context.Context) error {
		ran.Add(1)
		return errBoom
	}))

	err := m.Wait()

	assert.Equal(t, int32(2), ran.Load())
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorContains(t, err, "task fails")
}

func TestManager_recovers_panic(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(1)

	require.NoError(t, m.Go(context.Background(), "explodes", func(context.Context) error {
		panic("kaboom")
	}))

	err := m.Wait()

	require.Error(t, err)
	assert.ErrorContains(t, err, "kaboom")
}

func TestManager_limit_reached(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, m.Go(context.Background(), "holder", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	err := m.Go(context.Background(), "overflow", func(context.Context) error { return nil })

	assert.ErrorIs(t, err, goroutine.ErrLimitReached)
	close(release)
	assert.NoError(t, m.Wait())
}

func TestManager_closed(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(0)
	require.NoError(t, m.Wait())

	err := m.Go(context.Background(), "late", func(context.Context) error { return nil })

	assert.ErrorIs(t, err, goroutine.ErrClosed)
}

func TestManager_skips_cancelled_context(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool

	require.NoError(t, m.Go(ctx, "cancelled", func(context.Context) error {
		ran.Store(true)
		return nil
	}))

	assert.NoError(t, m.Wait())
	assert.False(t, ran.Load())
}

func TestManager_Shutdown_deadline(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	require.NoError(t, m.Go(context.Background(), "slow", func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, m.Shutdown(ctx), context.DeadlineExceeded)
}
