// internal/queue/queue.go
package queue

import (
	"context"
	"errors"
	"sync"

	"opening-server/internal/models"
)

// ErrQueueClosed is returned when publishing to a queue that has shut down.
var ErrQueueClosed = errors.New("queue is closed")

// Queue hands submitted generation jobs to the pipeline worker. Submission is
// fire-and-forget: Publish returns once the job is accepted, and the worker
// picks it up from Consume.
type Queue interface {
	Publish(ctx context.Context, job *models.GenerationInput) error
	Consume(ctx context.Context) (<-chan *models.GenerationInput, error)
	Close() error
}

// Memory is the in-process Queue: a buffered channel between the submission
// endpoint and the pipeline worker.
type Memory struct {
	jobs      chan *models.GenerationInput
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory(buffer int) *Memory {
	return &Memory{
		jobs: make(chan *models.GenerationInput, buffer),
		done: make(chan struct{}),
	}
}

func (m *Memory) Publish(ctx context.Context, job *models.GenerationInput) error {
	select {
	case <-m.done:
		return ErrQueueClosed
	default:
	}

	select {
	case <-m.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case m.jobs <- job:
		return nil
	}
}

func (m *Memory) Consume(ctx context.Context) (<-chan *models.GenerationInput, error) {
	return m.jobs, nil
}

// Close rejects further publishes. The jobs channel is left open so a
// publisher blocked in its send case can never hit a closed channel;
// consumers stop through their own context or stop signal instead of
// end-of-stream.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}
