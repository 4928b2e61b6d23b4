package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTracker(t *testing.T) (*StateTracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test:idem:"), mr
}

func returning(payload string, err error) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(payload), nil
	}
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("runs once then replays", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s, _ := newTracker(t)
		ctx := context.Background()
		calls := 0
		fn := func(context.Context) ([]byte, error) {
			calls++
			return []byte(`{"id":"doc-1"}`), nil
		}

		// Act
		first, err1 := s.Do(ctx, "k1", fn)
		second, err2 := s.Do(ctx, "k1", fn)

		// Assert
		if err1 != nil || err2 != nil {
			t.Fatalf("Do() errors = %v, %v", err1, err2)
		}
		if first.Replayed {
			t.Fatal("first result marked as replayed")
		}
		if !second.Replayed {
			t.Fatal("second result not marked as replayed")
		}
		if string(second.Payload) != `{"id":"doc-1"}` {
			t.Fatalf("replayed payload = %q", second.Payload)
		}
		if calls != 1 {
			t.Fatalf("fn called %d times, want 1", calls)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		t.Parallel()

		s, _ := newTracker(t)
		ctx := context.Background()

		l, state, _, err := s.acquire(ctx, "k2", time.Minute)
		if err != nil || state != StateNone || l == nil {
			t.Fatalf("acquire() = %v, %v, %v", l, state, err)
		}

		_, err = s.Do(ctx, "k2", returning("x", nil))
		if !errors.Is(err, ErrAlreadyInProgress) {
			t.Fatalf("Do() error = %v, want ErrAlreadyInProgress", err)
		}
	})

	t.Run("failure is sticky by default", func(t *testing.T) {
		t.Parallel()

		s, _ := newTracker(t)
		ctx := context.Background()
		boom := errors.New("boom")

		_, err := s.Do(ctx, "k3", returning("", boom))
		if !errors.Is(err, boom) {
			t.Fatalf("Do() error = %v, want boom", err)
		}

		_, err = s.Do(ctx, "k3", returning("x", nil))
		if !errors.Is(err, ErrAlreadyFailed) {
			t.Fatalf("Do() error = %v, want ErrAlreadyFailed", err)
		}
	})

	t.Run("release on failure allows retry", func(t *testing.T) {
		t.Parallel()

		s, mr := newTracker(t)
		ctx := context.Background()

		_, _ = s.Do(ctx, "k4", returning("", errors.New("boom")), WithReleaseOnFailure())
		if mr.Exists("test:idem:k4") {
			t.Fatal("key still present after failed run")
		}

		res, err := s.Do(ctx, "k4", returning("ok", nil), WithReleaseOnFailure())
		if err != nil {
			t.Fatalf("retry Do() error = %v", err)
		}
		if res.Replayed || string(res.Payload) != "ok" {
			t.Fatalf("retry Do() = %+v", res)
		}
	})

	t.Run("state expires", func(t *testing.T) {
		t.Parallel()

		s, mr := newTracker(t)
		ctx := context.Background()

		if _, err := s.Do(ctx, "k5", returning("a", nil), WithStateTTL(time.Second)); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		mr.FastForward(2 * time.Second)

		res, err := s.Do(ctx, "k5", returning("b", nil))
		if err != nil {
			t.Fatalf("Do() after expiry error = %v", err)
		}
		if res.Replayed || string(res.Payload) != "b" {
			t.Fatalf("Do() after expiry = %+v", res)
		}
	})

	t.Run("lock lost", func(t *testing.T) {
		t.Parallel()

		s, mr := newTracker(t)
		ctx := context.Background()

		_, err := s.Do(ctx, "k6", func(ctx context.Context) ([]byte, error) {
			mr.FastForward(2 * time.Second)
			if _, err := s.Do(ctx, "k6", returning("second", nil)); err != nil {
				t.Errorf("takeover Do() error = %v", err)
			}
			return []byte("first"), nil
		}, WithLockDuration(time.Second))
		if !errors.Is(err, ErrLockLost) {
			t.Fatalf("Do() error = %v, want ErrLockLost", err)
		}

		res, err := s.Do(ctx, "k6", returning("third", nil))
		if err != nil || string(res.Payload) != "second" {
			t.Fatalf("Do() = %+v, %v; want replay of the takeover run", res, err)
		}
	})

	t.Run("unknown stored state", func(t *testing.T) {
		t.Parallel()

		s, mr := newTracker(t)
		mr.HSet("test:idem:k7", "state", "weird")

		_, err := s.Do(context.Background(), "k7", returning("x", nil))
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("Do() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		t.Parallel()

		s, mr := newTracker(t)
		mr.Close()

		called := false
		_, err := s.Do(context.Background(), "k8", func(context.Context) ([]byte, error) {
			called = true
			return nil, nil
		})
		if err == nil {
			t.Fatal("Do() error = nil, want connection error")
		}
		if called {
			t.Fatal("fn ran without a lock")
		}
	})
}

func TestNew_defaultPrefix(t *testing.T) {
	t.Parallel()

	if got := New(nil, "").prefix; got != "idempotency:" {
		t.Fatalf("prefix = %q", got)
	}
}
