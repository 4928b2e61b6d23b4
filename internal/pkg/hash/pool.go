package hash

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrResultUnknown is returned when a pooled call is abandoned because its
// context ended first. The outcome of the underlying computation is discarded.
var ErrResultUnknown = errors.New("hash: result unknown")

// Pool bounds how many hash computations run at once.
//
// A call that gives up (context done or timeout) still holds its slot until
// the computation returns, so the bound covers abandoned work too.
type Pool struct {
	hasher  Hash
	sema    chan struct{}
	timeout time.Duration
}

// NewPool returns a Pool of size slots in front of h. A non-positive size uses
// the number of CPUs; a non-positive timeout disables the per-call deadline.
func NewPool(h Hash, size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}

	return &Pool{hasher: h, sema: make(chan struct{}, size), timeout: timeout}
}

// Hash runs the pool's hasher.
func (p *Pool) Hash(ctx context.Context, str string) (string, error) {
	return p.HashWith(ctx, p.hasher, str)
}

// HashWith runs h inside the pool.
func (p *Pool) HashWith(ctx context.Context, h Hash, str string) (string, error) {
	return run(ctx, p, func() (string, error) { return h.Hash(str) })
}

// Verify runs the pool's verifier.
func (p *Pool) Verify(ctx context.Context, hashed, str string) (bool, error) {
	return run(ctx, p, func() (bool, error) { return p.hasher.Verify(hashed, str) })
}

type outcome[T any] struct {
	val T
	err error
}

func run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case p.sema <- struct{}{}:
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrResultUnknown, ctx.Err())
	}

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			<-p.sema
			if rvr := recover(); rvr != nil {
				done <- outcome[T]{err: fmt.Errorf("hash: panic: %v", rvr)}
			}
		}()

		v, err := fn()
		done <- outcome[T]{val: v, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrResultUnknown, ctx.Err())
	}
}
