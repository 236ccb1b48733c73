package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
}

func TestQueueProcessesJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
	)
	succeeded := make(chan struct{})

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient failure")
		}
		close(succeeded)
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))

	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)
}
