package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of queued work. Attempt counts completed executions.
type Job struct {
	ID       string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A non-nil error triggers a retry until the
// attempt budget runs out.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory dispatcher with a fixed worker pool. Failed jobs
// retry on the same worker after a delay, so a flapping job never fans
// out across the pool.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue around the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker pool. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue schedules a job. It blocks while the buffer is full and fails
// once the queue is stopped or was never started.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	for {
		err := q.handler(q.ctx, job)
		job.Attempt++
		if err == nil {
			return
		}
		if job.Attempt > q.maxRetries {
			q.logger.Error("job dropped after retries",
				zap.String("queue", q.name), zap.String("job_id", job.ID),
				zap.Int("attempts", job.Attempt), zap.Error(err))
			return
		}
		q.logger.Warn("job failed, retrying",
			zap.String("queue", q.name), zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt), zap.Error(err))

		select {
		case <-q.ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
}
