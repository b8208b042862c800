// internal/storage/openings.go
package storage

import (
	"context"
	"sort"
	"sync"

	"opening-server/internal/models"
)

// MemoryOpeningStore keeps saved openings in process memory. It is the
// default implementation; leveldb and postgres variants are selected by
// configuration when openings should survive a restart.
type MemoryOpeningStore struct {
	mu       sync.RWMutex
	openings map[string]models.Opening
}

func NewMemoryOpeningStore() *MemoryOpeningStore {
	return &MemoryOpeningStore{
		openings: make(map[string]models.Opening),
	}
}

func (s *MemoryOpeningStore) Save(ctx context.Context, opening *models.Opening) error {
	s.mu.Lock()
	s.openings[opening.ID] = *opening
	s.mu.Unlock()
	return nil
}

func (s *MemoryOpeningStore) Get(ctx context.Context, id string) (*models.Opening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opening, ok := s.openings[id]
	if !ok {
		return nil, ErrOpeningNotFound
	}
	return &opening, nil
}

func (s *MemoryOpeningStore) ListByUser(ctx context.Context, userID string) ([]models.Opening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	openings := make([]models.Opening, 0)
	for _, opening := range s.openings {
		if opening.UserID == userID {
			openings = append(openings, opening)
		}
	}
	sort.Slice(openings, func(i, j int) bool {
		return openings[i].CreatedAt.After(openings[j].CreatedAt)
	})
	return openings, nil
}

func (s *MemoryOpeningStore) Delete(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opening, ok := s.openings[id]
	if !ok {
		return ErrOpeningNotFound
	}
	if opening.UserID != userID {
		return ErrNotOwner
	}

	delete(s.openings, id)
	return nil
}

func (s *MemoryOpeningStore) Close() error {
	return nil
}

// MemoryUserStore materializes users as the authenticator first sees them.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]models.User),
	}
}

func (s *MemoryUserStore) Ensure(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[user.ID]; ok {
		return existing
	}
	s.users[user.ID] = user
	return user
}

func (s *MemoryUserStore) Get(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}
