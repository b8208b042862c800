// internal/pipeline/worker_test.go
package pipeline

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opening-server/internal/models"
	"opening-server/internal/queue"
)

func TestWorkerProcessesQueuedJobs(t *testing.T) {
	f := newDriverFixture(t)
	q := queue.NewMemory(4)
	defer q.Close()

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	worker := NewWorker(q, f.driver, pool, zerolog.Nop())
	go worker.Start(context.Background())

	jobs := []*models.GenerationInput{
		f.newJob(t, 1, models.ThemeAction),
		f.newJob(t, 2, models.ThemeFantasy),
	}
	for _, job := range jobs {
		require.NoError(t, q.Publish(context.Background(), job))
	}

	require.Eventually(t, func() bool {
		for _, job := range jobs {
			task, err := f.store.Get(job.TaskID)
			if err != nil || task.Stage != models.StageCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, worker.Shutdown(5*time.Second))
}

func TestWorkerShutdownDrainsInFlightJobs(t *testing.T) {
	f := newDriverFixture(t)
	q := queue.NewMemory(1)
	defer q.Close()

	// A slow transform keeps the job in flight while Shutdown is called.
	started := make(chan struct{})
	f.transformer.fn = func(path string) (string, error) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		return "anime_" + path, nil
	}

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	worker := NewWorker(q, f.driver, pool, zerolog.Nop())
	go worker.Start(context.Background())

	job := f.newJob(t, 1, models.ThemeAction)
	require.NoError(t, q.Publish(context.Background(), job))

	<-started
	require.NoError(t, worker.Shutdown(5*time.Second))

	task, err := f.store.Get(job.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, task.Stage)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.transformer.calls))
}

func TestWorkerShutdownTimesOutOnStuckJob(t *testing.T) {
	f := newDriverFixture(t)
	q := queue.NewMemory(1)
	defer q.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	f.transformer.fn = func(path string) (string, error) {
		close(started)
		<-release
		return "anime_" + path, nil
	}
	defer close(release)

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	worker := NewWorker(q, f.driver, pool, zerolog.Nop())
	go worker.Start(context.Background())

	require.NoError(t, q.Publish(context.Background(), f.newJob(t, 1, models.ThemeAction)))
	<-started

	err = worker.Shutdown(50 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timed out"))
}
