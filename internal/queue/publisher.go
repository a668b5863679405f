package queue

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	customerrors "github.com/axellelanca/afltracker/internal/errors"
	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
)

// Enqueuer accepts click jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, click *models.Click) error
}

// ClickWriter inserts a click directly.
type ClickWriter interface {
	CreateClick(ctx context.Context, click *models.Click) error
}

const fallbackTimeout = 5 * time.Second

// PublisherConfig tunes a Publisher.
type PublisherConfig struct {
	EnqueueTimeout  time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Publisher hands clicks to the queue and falls back to a synchronous insert
// when the queue can't take them. While the breaker is open the queue is not
// tried at all.
type Publisher struct {
	queue    Enqueuer
	fallback ClickWriter
	breaker  *gobreaker.CircuitBreaker[struct{}]
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewPublisher creates a publisher over queue with fallback as the direct path.
func NewPublisher(queue Enqueuer, fallback ClickWriter, cfg PublisherConfig, logger *logrus.Logger) *Publisher {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "click-queue",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A cancelled caller says nothing about Redis health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
	return &Publisher{
		queue:    queue,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker[struct{}](settings),
		timeout:  cfg.EnqueueTimeout,
		logger:   logger,
	}
}

// Publish enqueues click, or inserts it synchronously if enqueueing fails.
// It only returns an error when both paths failed and the click is lost.
// The redirect has already been decided, so a client going away must not
// drop the click: both paths run detached from ctx cancellation.
func (p *Publisher) Publish(ctx context.Context, click *models.Click) error {
	ctx = context.WithoutCancel(ctx)
	_, err := p.breaker.Execute(func() (struct{}, error) {
		enqueueCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			enqueueCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return struct{}{}, p.queue.Enqueue(enqueueCtx, click)
	})
	if err == nil {
		metrics.ClicksPublished.WithLabelValues("queue").Inc()
		return nil
	}

	log := p.logger.WithField("click_id", click.ClickID)
	log.WithError(err).Warn("Enqueue failed, inserting click synchronously")

	insertCtx, cancel := context.WithTimeout(ctx, fallbackTimeout)
	defer cancel()
	if err := p.fallback.CreateClick(insertCtx, click); err != nil {
		metrics.ClicksPublished.WithLabelValues("lost").Inc()
		return customerrors.ErrClickRecordingFailed{ClickID: click.ClickID, Reason: err.Error()}
	}
	metrics.ClicksPublished.WithLabelValues("fallback").Inc()
	return nil
}
