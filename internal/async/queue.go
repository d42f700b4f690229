// Package async runs invoice jobs on a bounded pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one PDF to process.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
}

// Handler processes one job. The context carries the per-job timeout.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
