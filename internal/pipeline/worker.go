// internal/pipeline/worker.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"opening-server/internal/models"
	"opening-server/internal/queue"
)

// Worker consumes submitted jobs from the queue and runs the driver for each
// on the shared pool. Jobs in flight are drained on shutdown, bounded by a
// timeout.
type Worker struct {
	queue    queue.Queue
	driver   *Driver
	pool     *ants.Pool
	logger   zerolog.Logger
	jobs     sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewWorker(q queue.Queue, driver *Driver, pool *ants.Pool, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:    q,
		driver:   driver,
		pool:     pool,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the worker's consume loop. It blocks until the context is
// cancelled, Shutdown is called, or the jobs channel closes.
func (w *Worker) Start(ctx context.Context) error {
	jobsChan, err := w.queue.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming jobs: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case job, ok := <-jobsChan:
			if !ok {
				return nil
			}
			w.dispatch(ctx, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, job *models.GenerationInput) {
	w.jobs.Add(1)
	if err := w.pool.Submit(func() {
		defer w.jobs.Done()
		w.driver.Run(ctx, job)
	}); err != nil {
		w.jobs.Done()
		w.logger.Error().Err(err).Str("task_id", job.TaskID).Msg("failed to schedule job")
	}
}

// Shutdown stops consuming and waits for in-flight jobs, up to timeout.
func (w *Worker) Shutdown(timeout time.Duration) error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})

	done := make(chan struct{})
	go func() {
		w.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}
