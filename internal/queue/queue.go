// Package queue wraps hibiken/asynq into the named-queue, at-least-once,
// per-job-id-deduplicated contract the processing pipeline and FTP ingest
// server depend on.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hibiken/asynq"

	"github.com/maukemana/photocore/internal/apperr"
)

// EnqueueOptions mirror the core's enqueue contract: a stable JobID drives
// deduplication, Delay schedules a delayed job, MaxAttempts bounds retries.
type EnqueueOptions struct {
	JobID       string
	Delay       time.Duration
	MaxAttempts int
}

// Queue wraps an asynq client + inspector pair bound to one redis
// connection, giving the core Enqueue/Worker/Pause/Resume/Counts.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redisOpt  asynq.RedisConnOpt
}

// New connects to redis at addr (host:port).
func New(addr string) *Queue {
	opt := asynq.RedisClientOpt{Addr: addr}
	return &Queue{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		redisOpt:  opt,
	}
}

func (q *Queue) Close() error {
	err1 := q.client.Close()
	err2 := q.inspector.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Enqueue submits payload to queueName. A duplicate JobID is ignored
// (treated as success), giving ingest its idempotency: §4.3/§8 R1.
func (q *Queue) Enqueue(queueName string, taskType string, payload any, opts EnqueueOptions) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperr.Validation(fmt.Errorf("queue: marshal payload: %w", err))
	}

	task := asynq.NewTask(taskType, data)

	asynqOpts := []asynq.Option{asynq.Queue(queueName)}
	if opts.JobID != "" {
		asynqOpts = append(asynqOpts, asynq.TaskID(opts.JobID))
	}
	if opts.Delay > 0 {
		asynqOpts = append(asynqOpts, asynq.ProcessIn(opts.Delay))
	}
	if opts.MaxAttempts > 0 {
		asynqOpts = append(asynqOpts, asynq.MaxRetry(opts.MaxAttempts))
	}

	_, err = q.client.Enqueue(task, asynqOpts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return apperr.Transient(fmt.Errorf("queue: enqueue %s: %w", taskType, err))
	}
	return nil
}

// Handler processes one task's payload. An error triggers asynq's built-in
// retry-with-backoff; returning nil marks the task done.
type Handler func(ctx context.Context, payload []byte) error

// Worker runs handler against taskType with the given concurrency until ctx
// is cancelled. It is the long-running consumer loop for one binary.
func (q *Queue) Worker(ctx context.Context, addr string, queueName, taskType string, concurrency int, maxAttempts int, handler Handler) error {
	if concurrency <= 0 {
		concurrency = 4
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: addr},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{queueName: 1},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return backoffDelay(n)
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return handler(ctx, t.Payload())
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(mux)
	}()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

// backoffDelay implements the core's retry policy: exponential, base 1s,
// factor 2, cap 60s, jitter ±25%.
func backoffDelay(attempt int) time.Duration {
	base := time.Second
	cap := 60 * time.Second

	delay := base
	for i := 1; i < attempt && delay < cap; i++ {
		delay *= 2
	}
	if delay > cap {
		delay = cap
	}

	jitter := time.Duration(float64(delay) * 0.25 * (rand.Float64()*2 - 1))
	delay += jitter
	if delay < 0 {
		delay = base
	}
	return delay
}

// Pause stops queueName from being consumed, without losing queued jobs.
func (q *Queue) Pause(queueName string) error {
	if err := q.inspector.PauseQueue(queueName); err != nil {
		return apperr.Transient(fmt.Errorf("queue: pause %s: %w", queueName, err))
	}
	return nil
}

// Resume restarts consumption of queueName.
func (q *Queue) Resume(queueName string) error {
	if err := q.inspector.UnpauseQueue(queueName); err != nil {
		return apperr.Transient(fmt.Errorf("queue: resume %s: %w", queueName, err))
	}
	return nil
}

// Counts is the observable queue depth breakdown.
type Counts struct {
	Waiting   int
	Active    int
	Completed int
	Failed    int
	Delayed   int
}

// Counts reports queueName's current depth.
func (q *Queue) Counts(queueName string) (Counts, error) {
	info, err := q.inspector.GetQueueInfo(queueName)
	if err != nil {
		return Counts{}, apperr.Transient(fmt.Errorf("queue: counts %s: %w", queueName, err))
	}
	return Counts{
		Waiting:   info.Pending,
		Active:    info.Active,
		Completed: info.Completed,
		Failed:    info.Failed,
		Delayed:   info.Scheduled,
	}, nil
}

// DeadLettered lists tasks that exhausted their retries for queueName, i.e.
// asynq's archived set — the dead-letter bucket in §4.3.
func (q *Queue) DeadLettered(queueName string) ([]*asynq.TaskInfo, error) {
	tasks, err := q.inspector.ListArchivedTasks(queueName)
	if err != nil {
		return nil, apperr.Transient(fmt.Errorf("queue: list dead-letter %s: %w", queueName, err))
	}
	return tasks, nil
}
