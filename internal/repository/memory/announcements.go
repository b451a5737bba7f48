package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clan-manager/internal/model"
)

type AnnouncementStore struct {
	mu    sync.RWMutex
	items map[string]model.Announcement
}

func NewAnnouncementStore() *AnnouncementStore {
	return &AnnouncementStore{items: map[string]model.Announcement{}}
}

func (s *AnnouncementStore) FindByID(_ context.Context, id string) (model.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return model.Announcement{}, model.ErrAnnouncementNotFound
	}
	return a, nil
}

func (s *AnnouncementStore) List(_ context.Context, f model.AnnouncementFilter) ([]model.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	out := make([]model.Announcement, 0)
	for _, a := range s.items {
		if f.ClanID != "" && a.ClanID != f.ClanID {
			continue
		}
		if f.PinnedOnly && !a.IsPinned {
			continue
		}
		if f.From != nil && a.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !a.CreatedAt.Before(*f.To) {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(a.Title), kw) && !strings.Contains(strings.ToLower(a.Content), kw) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountPinned counts pinned announcements in one scope; an empty clanID is
// the global scope.
func (s *AnnouncementStore) CountPinned(_ context.Context, clanID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.items {
		if a.IsPinned && a.ClanID == clanID {
			count++
		}
	}
	return count, nil
}

func (s *AnnouncementStore) Create(_ context.Context, a model.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[a.ID] = a
	return nil
}

func (s *AnnouncementStore) Update(_ context.Context, a model.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[a.ID]; !ok {
		return model.ErrAnnouncementNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	s.items[a.ID] = a
	return nil
}

func (s *AnnouncementStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return model.ErrAnnouncementNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *AnnouncementStore) IncrementViews(_ context.Context, id string) (model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return model.Announcement{}, model.ErrAnnouncementNotFound
	}
	a.ViewCount++
	s.items[id] = a
	return a, nil
}
