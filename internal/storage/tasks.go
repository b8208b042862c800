// internal/storage/tasks.go
package storage

import (
	"sync"
	"time"

	"opening-server/internal/models"
)

// MemoryTaskStore is the reference TaskStore: a process-wide map guarded by a
// RWMutex. Task records never survive a restart.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[string]*models.Task),
	}
}

func (s *MemoryTaskStore) Create(owner string) *models.Task {
	task := models.NewTask(owner)

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	snapshot := *task
	return &snapshot
}

func (s *MemoryTaskStore) Get(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return *task, nil
}

func (s *MemoryTaskStore) Update(id string, stage models.Stage, progress int, message string, result *models.Result, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	task.Stage = stage
	// Progress is monotonically non-decreasing for the lifetime of a task.
	if progress > task.Progress {
		task.Progress = progress
	}
	task.Message = message
	task.Result = result
	task.Error = errMsg
	task.UpdatedAt = time.Now()

	return nil
}

func (s *MemoryTaskStore) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, task := range s.tasks {
		if task.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked tasks.
func (s *MemoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
