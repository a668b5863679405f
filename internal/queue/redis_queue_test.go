package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/axellelanca/afltracker/internal/models"
)

func newTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := NewRedisQueue(client, Options{Name: "clicks-test", MaxAttempts: 3, BackoffBase: 2 * time.Second, PollTimeout: time.Second})
	q.now = func() time.Time { return now }
	return q, mr, &now
}

func mustStats(t *testing.T, q *RedisQueue) *Stats {
	t.Helper()
	s, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	return s
}

func TestEnqueueDequeueAck(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, &models.Click{ClickID: "afl_1", CampaignID: "camp_1", Cost: 0.5}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if s := mustStats(t, q); s.Pending != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending)
	}

	d, err := q.Dequeue(ctx)
	if err != nil || d == nil {
		t.Fatalf("Dequeue: %v %v", d, err)
	}
	if d.Job.Click.ClickID != "afl_1" || d.Job.Click.Cost != 0.5 || d.Job.ID == "" {
		t.Fatalf("unexpected job %+v", d.Job)
	}
	if s := mustStats(t, q); s.Pending != 0 || s.Processing != 1 {
		t.Fatalf("after dequeue: %+v", s)
	}

	if err := q.Ack(ctx, d); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if s := mustStats(t, q); *s != (Stats{}) {
		t.Fatalf("after ack: %+v", s)
	}
}

func TestDequeueFIFO(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()
	for _, id := range []string{"afl_1", "afl_2"} {
		if err := q.Enqueue(ctx, &models.Click{ClickID: id}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if d.Job.Click.ClickID != "afl_1" {
		t.Fatalf("first job = %s, want afl_1", d.Job.Click.ClickID)
	}
}

func TestRetryBacksOffThenParks(t *testing.T) {
	q, _, now := newTestQueue(t)
	ctx := context.Background()
	if err := q.Enqueue(ctx, &models.Click{ClickID: "afl_1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cause := errors.New("database locked")
	for attempt := 1; attempt <= 3; attempt++ {
		d, err := q.Dequeue(ctx)
		if err != nil || d == nil {
			t.Fatalf("attempt %d: Dequeue: %v %v", attempt, d, err)
		}
		parked, err := q.Retry(ctx, d, cause)
		if err != nil {
			t.Fatalf("attempt %d: Retry: %v", attempt, err)
		}
		if attempt == 3 {
			if !parked {
				t.Fatal("third failure should park the job")
			}
			break
		}
		if parked {
			t.Fatalf("attempt %d parked too early", attempt)
		}

		if n, _ := q.PromoteDue(ctx); n != 0 {
			t.Fatalf("attempt %d: job promoted before its backoff elapsed", attempt)
		}
		*now = now.Add(q.Backoff(attempt))
		if n, err := q.PromoteDue(ctx); err != nil || n != 1 {
			t.Fatalf("attempt %d: PromoteDue = %d, %v", attempt, n, err)
		}
	}

	s := mustStats(t, q)
	if s.Failed != 1 || s.Pending != 0 || s.Processing != 0 || s.Delayed != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
	failed, err := q.FailedJobs(ctx, 10)
	if err != nil || len(failed) != 1 {
		t.Fatalf("FailedJobs: %v %v", failed, err)
	}
	if failed[0].Attempts != 3 || failed[0].LastError != "database locked" {
		t.Fatalf("unexpected failed job %+v", failed[0])
	}
}

func TestBackoffDoubles(t *testing.T) {
	q, _, _ := newTestQueue(t)
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := q.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRequeueInFlight(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()
	if err := q.Enqueue(ctx, &models.Click{ClickID: "afl_1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	n, err := q.RequeueInFlight(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RequeueInFlight = %d, %v", n, err)
	}
	if s := mustStats(t, q); s.Pending != 1 || s.Processing != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestUndecodableJobIsParked(t *testing.T) {
	q, mr, _ := newTestQueue(t)
	if _, err := mr.Lpush(q.pending, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := q.Dequeue(context.Background()); err == nil {
		t.Fatal("expected a decode error")
	}
	if s := mustStats(t, q); s.Failed != 1 || s.Processing != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestEnqueueUnavailable(t *testing.T) {
	q, mr, _ := newTestQueue(t)
	mr.Close()

	if err := q.Enqueue(context.Background(), &models.Click{ClickID: "afl_1"}); err == nil {
		t.Fatal("expected an error with redis down")
	}
}
