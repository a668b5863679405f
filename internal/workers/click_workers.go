// Package workers runs the pool of goroutines that drains the click queue into the database.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/axellelanca/afltracker/internal/metrics"
	"github.com/axellelanca/afltracker/internal/models"
	"github.com/axellelanca/afltracker/internal/queue"
)

// JobSource is the consumer side of the click queue.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Delivery, error)
	Ack(ctx context.Context, d *queue.Delivery) error
	Retry(ctx context.Context, d *queue.Delivery, cause error) (bool, error)
	PromoteDue(ctx context.Context) (int, error)
}

// ClickWriter persists a click. Inserting an already stored click id is a no-op.
type ClickWriter interface {
	CreateClick(ctx context.Context, click *models.Click) error
}

// PromoteInterval is how often delayed retries are checked.
const PromoteInterval = time.Second

// errorPause keeps a worker from spinning while Redis is unreachable.
const errorPause = time.Second

// StartClickWorkers launches workerCount consumers and one retry promoter.
// They stop when ctx is cancelled; the returned WaitGroup is done once every
// goroutine returned. A job in progress at cancellation finishes first.
func StartClickWorkers(ctx context.Context, workerCount int, source JobSource, clickRepo ClickWriter, logger *logrus.Logger) *sync.WaitGroup {
	logger.WithField("workers", workerCount).Info("Starting click workers")

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			clickWorker(ctx, id, source, clickRepo, logger)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		promoter(ctx, source, logger)
	}()

	return &wg
}

func clickWorker(ctx context.Context, id int, source JobSource, clickRepo ClickWriter, logger *logrus.Logger) {
	log := logger.WithField("worker", id)
	for ctx.Err() == nil {
		d, err := source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("Dequeue failed")
			sleep(ctx, errorPause)
			continue
		}
		if d == nil {
			continue
		}
		// Detached so a shutdown doesn't abort an insert half way.
		ProcessJob(context.WithoutCancel(ctx), d, source, clickRepo, log)
	}
}

// ProcessJob inserts the click of one delivery and acknowledges or retries it.
func ProcessJob(ctx context.Context, d *queue.Delivery, source JobSource, clickRepo ClickWriter, log *logrus.Entry) {
	jobLog := log.WithFields(logrus.Fields{
		"job_id":   d.Job.ID,
		"click_id": d.Job.Click.ClickID,
		"attempt":  d.Job.Attempts + 1,
	})

	click := d.Job.Click
	if err := clickRepo.CreateClick(ctx, &click); err != nil {
		parked, retryErr := source.Retry(ctx, d, err)
		switch {
		case retryErr != nil:
			jobLog.WithError(retryErr).Error("Could not schedule retry")
		case parked:
			metrics.QueueJobs.WithLabelValues("failed").Inc()
			jobLog.WithError(err).Error("Click job failed permanently")
		default:
			metrics.QueueJobs.WithLabelValues("retried").Inc()
			jobLog.WithError(err).Warn("Click insert failed, retry scheduled")
		}
		return
	}

	if err := source.Ack(ctx, d); err != nil {
		jobLog.WithError(err).Error("Ack failed")
	}
	metrics.QueueJobs.WithLabelValues("processed").Inc()
	jobLog.Debug("Click recorded")
}

func promoter(ctx context.Context, source JobSource, logger *logrus.Logger) {
	ticker := time.NewTicker(PromoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := source.PromoteDue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.WithError(err).Warn("Promoting delayed jobs failed")
				}
				continue
			}
			if n > 0 {
				logger.WithField("jobs", n).Debug("Delayed jobs promoted")
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
