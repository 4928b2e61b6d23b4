// Package ratelimit counts failed attempts per subject and client address in
// Redis fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned once the attempt budget of a window is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps any Redis failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config tunes the limiter.
type Config struct {
	// Prefix namespaces the Redis keys.
	Prefix string
	// MaxAttempts is the number of failures tolerated per window.
	MaxAttempts int
	// Window is the fixed window length, started by the first failure.
	Window time.Duration
}

type keyer interface {
	Reference(str string) string
}

// Limiter enforces a failure budget per (subject, ip) pair.
type Limiter struct {
	redis  redis.UniversalClient
	keyer  keyer
	config Config
}

// New creates a Limiter. keyer turns the identifier into an opaque key part
// so raw subjects and addresses never appear in Redis.
func New(client redis.UniversalClient, k keyer, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit:"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}

	return &Limiter{redis: client, keyer: k, config: cfg}
}

// Check returns ErrRateLimited when the pair has exhausted its budget.
func (l *Limiter) Check(ctx context.Context, subject, ip string) error {
	count, err := l.redis.Get(ctx, l.key(subject, ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Fail records a failure. It returns ErrRateLimited when this failure
// spends the last attempt of the window.
func (l *Limiter) Fail(ctx context.Context, subject, ip string) error {
	key := l.key(subject, ip)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	// first hit opens the window
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the window, typically after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, subject, ip string) error {
	if err := l.redis.Del(ctx, l.key(subject, ip)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	return nil
}

// Remaining returns how many failures are left in the current window.
func (l *Limiter) Remaining(ctx context.Context, subject, ip string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(subject, ip)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	return max(l.config.MaxAttempts-int(count), 0), nil
}

func (l *Limiter) key(subject, ip string) string {
	return l.config.Prefix + l.keyer.Reference(subject+"|"+ip)
}
