package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
)

// Options tune a RedisQueue.
type Options struct {
	Name        string
	MaxAttempts int
	BackoffBase time.Duration
	PollTimeout time.Duration
}

// RedisQueue is a reliable queue on four Redis keys:
//
//	queue:<name>:pending     LIST, new and due jobs (LPUSH, consumed from the right)
//	queue:<name>:processing  LIST, jobs held by a consumer
//	queue:<name>:delayed     ZSET, jobs waiting for their retry, scored by due time (ms)
//	queue:<name>:failed      LIST, jobs that exhausted their attempts, kept for inspection
type RedisQueue struct {
	client *redis.Client
	opts   Options
	now    func() time.Time

	pending    string
	processing string
	delayed    string
	failed     string
}

// promoteScript moves due delayed jobs to pending in one atomic step, so two
// promoters never push the same job twice.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', '0', ARGV[2])
for _, payload in ipairs(due) do
  redis.call('ZREM', KEYS[1], payload)
  redis.call('LPUSH', KEYS[2], payload)
end
return #due
`)

// NewRedisQueue creates a queue named opts.Name on client.
func NewRedisQueue(client *redis.Client, opts Options) *RedisQueue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 2 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	prefix := "queue:" + opts.Name + ":"
	return &RedisQueue{
		client:     client,
		opts:       opts,
		now:        time.Now,
		pending:    prefix + "pending",
		processing: prefix + "processing",
		delayed:    prefix + "delayed",
		failed:     prefix + "failed",
	}
}

// Name returns the queue name.
func (q *RedisQueue) Name() string {
	return q.opts.Name
}

// Enqueue pushes click as a new job.
func (q *RedisQueue) Enqueue(ctx context.Context, click *models.Click) error {
	payload, err := NewJob(click, q.now()).encode()
	if err != nil {
		return fmt.Errorf("encode click %s: %w", click.ClickID, err)
	}
	if err := q.client.LPush(ctx, q.pending, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", customerrors.ErrQueueUnavailable, err)
	}
	return nil
}

// Dequeue waits up to the poll timeout for a job and moves it to the
// processing list. It returns nil, nil when no job arrived in time.
// Payloads that can't be decoded go straight to the failed list.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	payload, err := q.client.BRPopLPush(ctx, q.pending, q.processing, q.opts.PollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue from %s: %w", q.pending, err)
	}

	job, err := decodeJob(payload)
	if err != nil {
		if _, txErr := q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.LRem(ctx, q.processing, 1, payload)
			p.LPush(ctx, q.failed, payload)
			return nil
		}); txErr != nil {
			return nil, fmt.Errorf("park undecodable job: %w", txErr)
		}
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &Delivery{Job: job, payload: payload}, nil
}

// Ack removes a processed job.
func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	if err := q.client.LRem(ctx, q.processing, 1, d.payload).Err(); err != nil {
		return fmt.Errorf("ack job %s: %w", d.Job.ID, err)
	}
	return nil
}

// Retry records a failed attempt. The job is delayed by BackoffBase*2^(attempts-1)
// or, once MaxAttempts is reached, parked in the failed list. It reports
// whether the job was parked.
func (q *RedisQueue) Retry(ctx context.Context, d *Delivery, cause error) (bool, error) {
	job := *d.Job
	job.Attempts++
	if cause != nil {
		job.LastError = cause.Error()
	}
	payload, err := job.encode()
	if err != nil {
		return false, fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	exhausted := job.Attempts >= q.opts.MaxAttempts
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.processing, 1, d.payload)
		if exhausted {
			p.LPush(ctx, q.failed, payload)
			return nil
		}
		due := q.now().Add(q.Backoff(job.Attempts))
		p.ZAdd(ctx, q.delayed, redis.Z{Score: float64(due.UnixMilli()), Member: payload})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("retry job %s: %w", job.ID, err)
	}
	return exhausted, nil
}

// Backoff returns the delay before the next attempt after attempt failures.
func (q *RedisQueue) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return q.opts.BackoffBase << (attempt - 1)
}

// PromoteDue moves delayed jobs whose time has come back to pending.
func (q *RedisQueue) PromoteDue(ctx context.Context) (int, error) {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)
	n, err := promoteScript.Run(ctx, q.client, []string{q.delayed, q.pending}, now, 100).Int()
	if err != nil {
		return 0, fmt.Errorf("promote delayed jobs: %w", err)
	}
	return n, nil
}

// RequeueInFlight returns every job of the processing list to pending. It is
// run when consumers start, to pick up jobs held by a worker that died.
// The processing list is shared, so jobs of a live peer move too.
// Inserts ignore click ids that already exist, so a job delivered twice is harmless.
func (q *RedisQueue) RequeueInFlight(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.RPopLPush(ctx, q.processing, q.pending).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("requeue in-flight jobs: %w", err)
		}
		n++
	}
}

// Stats counts the jobs in each state.
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Failed     int64 `json:"failed"`
}

// Stats reads the queue sizes and publishes them as gauges.
func (q *RedisQueue) Stats(ctx context.Context) (*Stats, error) {
	var pending, processing, delayed, failed *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		pending = p.LLen(ctx, q.pending)
		processing = p.LLen(ctx, q.processing)
		delayed = p.ZCard(ctx, q.delayed)
		failed = p.LLen(ctx, q.failed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read queue stats: %w", err)
	}

	s := &Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
		Failed:     failed.Val(),
	}
	metrics.QueueDepth.WithLabelValues("pending").Set(float64(s.Pending))
	metrics.QueueDepth.WithLabelValues("processing").Set(float64(s.Processing))
	metrics.QueueDepth.WithLabelValues("delayed").Set(float64(s.Delayed))
	metrics.QueueDepth.WithLabelValues("failed").Set(float64(s.Failed))
	return s, nil
}

// FailedJobs returns up to limit parked jobs, newest first.
func (q *RedisQueue) FailedJobs(ctx context.Context, limit int64) ([]*Job, error) {
	raw, err := q.client.LRange(ctx, q.failed, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read failed jobs: %w", err)
	}
	jobs := make([]*Job, 0, len(raw))
	for _, payload := range raw {
		job, err := decodeJob(payload)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
