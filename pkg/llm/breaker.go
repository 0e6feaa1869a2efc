package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerAdapter wraps an Adapter with a circuit breaker so a run of
// connection/timeout failures against one backend trips open and fails
// fast instead of letting every in-flight task queue up against a dead
// LLM service, mirroring the teacher's preference for explicit
// degrade-don't-hang failure handling under pkg/services.
type BreakerAdapter struct {
	inner   Adapter
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerAdapter wraps inner with a breaker named name. The breaker
// trips after 5 consecutive failures and resets after a 30s cooldown.
func NewBreakerAdapter(name string, inner Adapter) *BreakerAdapter {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("llm circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerAdapter{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// isRetryableErr reports whether err is a transient failure that should
// count against the breaker, as opposed to a permanent rejection (e.g.
// authentication) that the breaker should not penalize the backend for.
func isRetryableErr(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// Complete runs req through the breaker, surfacing gobreaker.ErrOpenState
// unchanged so callers can distinguish "backend is circuit-broken" from an
// ordinary call failure.
func (b *BreakerAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	var permanentErr error
	result, err := b.breaker.Execute(func() (interface{}, error) {
		resp, err := b.inner.Complete(ctx, req)
		if err != nil && !isRetryableErr(err) {
			// Permanent errors (bad auth, bad request) aren't counted as
			// breaker failures: stash err and report success to
			// gobreaker.Execute (which records a success and so resets
			// ConsecutiveFailures to 0), then surface the real error to
			// the caller below.
			permanentErr = err
			return nil, nil
		}
		return resp, err
	})
	if permanentErr != nil {
		return nil, permanentErr
	}
	if err != nil {
		return nil, err
	}
	return result.(*Response), nil
}

// Stream runs req through the breaker for the call-setup phase only; once
// streaming begins, failures mid-stream are reported on the returned error
// channel without further tripping the breaker; this matches the teacher's
// stream-then-forget error handling in its original GenerateStream.
func (b *BreakerAdapter) Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		chunks, errs := b.inner.Stream(ctx, req)
		return [2]any{chunks, errs}, nil
	})
	if err != nil {
		errCh := make(chan error, 1)
		errCh <- err
		close(errCh)
		chunkCh := make(chan Chunk)
		close(chunkCh)
		return chunkCh, errCh
	}
	pair := result.([2]any)
	return pair[0].(<-chan Chunk), pair[1].(<-chan error)
}
