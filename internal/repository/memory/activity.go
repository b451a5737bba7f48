package memory

import (
	"context"
	"sync"

	"clan-manager/internal/model"
)

type ActivityStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []model.ActivityEntry
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func (s *ActivityStore) Append(_ context.Context, entry model.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)
	return nil
}

// ListByUser returns the newest entries first.
func (s *ActivityStore) ListByUser(_ context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ActivityEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID != userID {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
