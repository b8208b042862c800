// internal/pipeline/sweeper.go
package pipeline

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"opening-server/internal/storage"
)

// Sweeper evicts task records older than the retention window. Eviction is
// purely age-based: a record whose driver is still running is removed like
// any other, and later status polls for it return not-found. The driver
// tolerates the missing record, so the race is benign.
type Sweeper struct {
	store    storage.TaskStore
	maxAge   time.Duration
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSweeper(store storage.TaskStore, maxAge, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every tick until Stop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the ticker and runs one final sweep.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.done
	s.sweep()
}

func (s *Sweeper) sweep() {
	if removed := s.store.Sweep(s.maxAge); removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("swept expired tasks")
	}
}
