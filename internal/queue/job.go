// Package queue is the durable click queue between the redirect handler and
// the persistence workers. Producer and consumer only share the Job shape.
package queue

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/axellelanca/afltracker/internal/models"
)

// Job is one click waiting to be inserted.
type Job struct {
	ID         string       `json:"id"`
	Attempts   int          `json:"attempts"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
	LastError  string       `json:"last_error,omitempty"`
	Click      models.Click `json:"click"`
}

// NewJob wraps click in a job with a fresh id.
func NewJob(click *models.Click, now time.Time) *Job {
	return &Job{
		ID:         uuid.NewString(),
		EnqueuedAt: now.UTC(),
		Click:      *click,
	}
}

func (j *Job) encode() (string, error) {
	raw, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJob(payload string) (*Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(payload), &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Delivery is a job taken by a consumer. The raw payload identifies the entry
// in the processing list until it is acknowledged or retried.
type Delivery struct {
	Job     *Job
	payload string
}
