package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSubmitBeforeStart(t *testing.T) {
	q := New[string]("test", func(context.Context, Job[string]) error { return nil }, Config{})
	require.ErrorIs(t, q.Submit("1", "a"), ErrNotStarted)
	assert.False(t, q.Running())
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := New[string]("test", func(_ context.Context, job Job[string]) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Payload)
		return nil
	}, Config{Workers: 2, BufferSize: 16})
	q.Start(context.Background())

	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Submit(p, p))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, seen)
	assert.Equal(t, uint64(4), q.Stats().Processed)
	require.ErrorIs(t, q.Submit("e", "e"), ErrStopped)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := New[int]("test", func(_ context.Context, job Job[int]) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Submit("job", 1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Retried)
	assert.Equal(t, uint64(1), stats.Processed)
	assert.Zero(t, stats.Dropped)
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	var calls int32
	q := New[int]("test", func(context.Context, Job[int]) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, Config{MaxRetries: 0})
	q.Start(context.Background())
	require.NoError(t, q.Submit("job", 1))
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, uint64(1), q.Stats().Dropped)
}

func TestQueueFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := New[int]("test", func(context.Context, Job[int]) error {
		<-block
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Submit("1", 1))
	// the worker may or may not have picked up the first job yet
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Submit("n", i)
	}
	require.ErrorIs(t, err, ErrFull)
	close(block)
	q.Stop()
}
