// Package idempotency makes a keyed operation run at most once and lets
// repeated requests with the same key receive the first result.
//
// Each key is a Redis hash holding the state, the result payload of a
// completed run and, while running, the token of the owner. Only the owner
// can complete or release a key, so a run that outlives its lock cannot
// overwrite the state of a later run.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
	// ErrLockLost is returned when the lock expired before the run finished
	// and another run took the key over.
	ErrLockLost = errors.New("idempotency lock lost")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Result is what Do hands back. Replayed is true when Payload comes from an
// earlier run.
type Result struct {
	Payload  []byte
	Replayed bool
}

type Idempotency interface {
	Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) (Result, error)
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type Option func(*options)

type options struct {
	lock             time.Duration
	ttl              time.Duration
	releaseOnFailure bool
}

// WithLockDuration bounds how long a run may hold the key.
func WithLockDuration(d time.Duration) Option {
	return func(o *options) { o.lock = d }
}

// WithStateTTL sets how long a finished run is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithReleaseOnFailure forgets the key when fn fails, so the client may
// retry with the same key instead of receiving ErrAlreadyFailed.
func WithReleaseOnFailure() Option {
	return func(o *options) { o.releaseOnFailure = true }
}

var (
	// KEYS[1] key; ARGV[1] lock ms, ARGV[2] owner token
	acquireScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then
  redis.call('HSET', KEYS[1], 'state', 'in_progress', 'owner', ARGV[2])
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  return {'none', ''}
end
return {state, redis.call('HGET', KEYS[1], 'payload') or ''}
`)

	// KEYS[1] key; ARGV[1] owner, ARGV[2] state, ARGV[3] payload, ARGV[4] ttl ms
	finishScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') ~= ARGV[1] then
  return 0
end
redis.call('HDEL', KEYS[1], 'owner')
redis.call('HSET', KEYS[1], 'state', ARGV[2], 'payload', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

	// KEYS[1] key; ARGV[1] owner
	releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') ~= ARGV[1] then
  return 0
end
return redis.call('DEL', KEYS[1])
`)
)

// StateTracker implements Idempotency on Redis.
type StateTracker struct {
	client redis.Scripter
	prefix string
}

func New(client redis.Scripter, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

// lease is an acquired key.
type lease struct {
	key   string
	owner string
}

// acquire returns a lease when the key was free. Otherwise it returns the
// recorded state and, for completed runs, the stored payload.
func (s *StateTracker) acquire(ctx context.Context, key string, lock time.Duration) (*lease, State, []byte, error) {
	l := &lease{key: s.prefix + key, owner: uuid.NewString()}

	res, err := acquireScript.Run(ctx, s.client, []string{l.key}, lock.Milliseconds(), l.owner).StringSlice()
	if err != nil {
		return nil, "", nil, err
	}
	if len(res) != 2 {
		return nil, "", nil, ErrInvalidState
	}

	switch st := State(res[0]); st {
	case StateNone:
		return l, st, nil, nil
	case StateInProgress, StateCompleted, StateFailed:
		return nil, st, []byte(res[1]), nil
	default:
		return nil, "", nil, ErrInvalidState
	}
}

func (s *StateTracker) finish(ctx context.Context, l *lease, st State, payload []byte, ttl time.Duration) error {
	ok, err := finishScript.Run(ctx, s.client, []string{l.key}, l.owner, string(st), payload, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return ErrLockLost
	}
	return nil
}

func (s *StateTracker) release(ctx context.Context, l *lease) error {
	return releaseScript.Run(ctx, s.client, []string{l.key}, l.owner).Err()
}

// Do runs fn unless key was seen before. A completed key returns the stored
// payload with Replayed set; a key still running yields
// ErrAlreadyInProgress and a failed one ErrAlreadyFailed. fn errors are
// returned joined with any error from recording the outcome.
func (s *StateTracker) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error), opts ...Option) (Result, error) {
	o := options{lock: defaultLockDuration, ttl: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lock <= 0 {
		o.lock = defaultLockDuration
	}
	if o.ttl <= 0 {
		o.ttl = defaultStateTTL
	}

	l, st, payload, err := s.acquire(ctx, key, o.lock)
	if err != nil {
		return Result{}, err
	}
	switch st {
	case StateInProgress:
		return Result{}, ErrAlreadyInProgress
	case StateFailed:
		return Result{}, ErrAlreadyFailed
	case StateCompleted:
		return Result{Payload: payload, Replayed: true}, nil
	}

	out, err := fn(ctx)
	if err != nil {
		if o.releaseOnFailure {
			return Result{}, errors.Join(err, s.release(ctx, l))
		}
		return Result{}, errors.Join(err, s.finish(ctx, l, StateFailed, nil, o.ttl))
	}

	return Result{Payload: out}, s.finish(ctx, l, StateCompleted, out, o.ttl)
}
