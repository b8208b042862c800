// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"opening-server/internal/models"
)

var (
	// ErrTaskNotFound is returned for task ids that were never created or
	// have been evicted by the retention sweep.
	ErrTaskNotFound = errors.New("task not found")

	// ErrOpeningNotFound is returned for unknown opening ids.
	ErrOpeningNotFound = errors.New("opening not found")

	// ErrNotOwner is returned when a principal acts on an opening owned by
	// someone else.
	ErrNotOwner = errors.New("not the owner of this opening")
)

// TaskStore tracks generation tasks for the lifetime of the process.
// Records are keyed by task id; the pipeline driver is the single writer of
// any given record's mutable fields, so implementations only need structural
// safety across keys (concurrent insert/get/delete), not per-field locking.
type TaskStore interface {
	// Create allocates a fresh task in the queued state.
	Create(owner string) *models.Task
	// Get returns a snapshot of the task, or ErrTaskNotFound.
	Get(id string) (models.Task, error)
	// Update overwrites the mutable fields of an existing task. It returns
	// ErrTaskNotFound if the record is absent, which can legitimately happen
	// when the retention sweep raced a still-running driver.
	Update(id string, stage models.Stage, progress int, message string, result *models.Result, errMsg string) error
	// Sweep removes every task older than maxAge regardless of stage and
	// returns the number removed.
	Sweep(maxAge time.Duration) int
}

// OpeningStore persists saved openings. Unlike tasks, openings may outlive
// the process depending on the configured implementation.
type OpeningStore interface {
	Save(ctx context.Context, opening *models.Opening) error
	Get(ctx context.Context, id string) (*models.Opening, error)
	ListByUser(ctx context.Context, userID string) ([]models.Opening, error)
	// Delete removes an opening after checking ownership. ErrOpeningNotFound
	// for unknown ids, ErrNotOwner when userID does not own it.
	Delete(ctx context.Context, id, userID string) error
	Close() error
}

// UserStore tracks principals the authenticator has seen.
type UserStore interface {
	Ensure(user models.User) models.User
	Get(id string) (models.User, bool)
}
