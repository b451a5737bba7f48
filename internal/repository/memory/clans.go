package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clan-manager/internal/model"
)

type ClanStore struct {
	mu    sync.RWMutex
	clans map[string]model.Clan
}

func NewClanStore() *ClanStore {
	return &ClanStore{clans: map[string]model.Clan{}}
}

func (s *ClanStore) FindByID(_ context.Context, id string) (model.Clan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clans[id]
	if !ok {
		return model.Clan{}, model.ErrClanNotFound
	}
	return c, nil
}

func (s *ClanStore) FindMain(_ context.Context) (model.Clan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clans {
		if c.IsMainClan {
			return c, nil
		}
	}
	return model.Clan{}, model.ErrClanNotFound
}

func (s *ClanStore) List(_ context.Context, activeOnly bool) ([]model.Clan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Clan, 0, len(s.clans))
	for _, c := range s.clans {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *ClanStore) Create(_ context.Context, c model.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clans[c.ID]; exists {
		return model.ErrClanAlreadyExists
	}
	s.clans[c.ID] = c
	return nil
}

func (s *ClanStore) Update(_ context.Context, c model.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clans[c.ID]; !ok {
		return model.ErrClanNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	s.clans[c.ID] = c
	return nil
}

func (s *ClanStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clans[id]; !ok {
		return model.ErrClanNotFound
	}
	delete(s.clans, id)
	return nil
}

func (s *ClanStore) ResetWeeklyKills(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.clans {
		c.WeeklyKills = 0
		s.clans[id] = c
	}
	return nil
}
