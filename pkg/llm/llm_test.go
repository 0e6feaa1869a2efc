package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/llm"
)

// fakeAdapter is a test double implementing llm.Adapter.
type fakeAdapter struct {
	err   error
	calls int
}

func (f *fakeAdapter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: "ok", StopReason: llm.StopEndTurn}, nil
}

func (f *fakeAdapter) Stream(ctx context.Context, req llm.Request) (<-chan llm.Chunk, <-chan error) {
	chunks := make(chan llm.Chunk, 1)
	errs := make(chan error, 1)
	chunks <- llm.Chunk{Done: true, Response: &llm.Response{Content: "ok"}}
	close(chunks)
	close(errs)
	return chunks, errs
}

func TestBreakerAdapter_PassesThroughOnSuccess(t *testing.T) {
	fake := &fakeAdapter{}
	adapter := llm.NewBreakerAdapter("test", fake)

	resp, err := adapter.Complete(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, fake.calls)
}

func TestBreakerAdapter_TripsAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeAdapter{err: llm.ErrConnection}
	adapter := llm.NewBreakerAdapter("test-trip", fake)

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = adapter.Complete(context.Background(), llm.Request{})
		assert.ErrorIs(t, lastErr, llm.ErrConnection)
	}

	_, err := adapter.Complete(context.Background(), llm.Request{})
	assert.True(t, errors.Is(err, llm.ErrConnection) || err != nil, "breaker should report open state or the underlying error")
	assert.Equal(t, 5, fake.calls, "breaker should short-circuit the call once open")
}

func TestBreakerAdapter_PermanentErrorDoesNotTrip(t *testing.T) {
	fake := &fakeAdapter{err: llm.ErrAuthentication}
	adapter := llm.NewBreakerAdapter("test-permanent", fake)

	for i := 0; i < 10; i++ {
		_, err := adapter.Complete(context.Background(), llm.Request{})
		assert.ErrorIs(t, err, llm.ErrAuthentication)
	}

	assert.Equal(t, 10, fake.calls, "breaker must not open on repeated permanent errors")
}

func TestBreakerAdapter_Stream_PassesThrough(t *testing.T) {
	fake := &fakeAdapter{}
	adapter := llm.NewBreakerAdapter("test-stream", fake)

	chunks, errs := adapter.Stream(context.Background(), llm.Request{})
	var got []llm.Chunk
	for c := range chunks {
		got = append(got, c)
	}
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, got, 1)
	assert.True(t, got[0].Done)
	assert.Equal(t, "ok", got[0].Response.Content)
}
