package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clan-manager/internal/model"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]model.User{}}
}

func (s *UserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *UserStore) ExistsByRole(_ context.Context, role model.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *UserStore) List(_ context.Context) ([]model.User, error) {
	return s.collect(func(model.User) bool { return true }), nil
}

func (s *UserStore) ListByClan(_ context.Context, clanID string) ([]model.User, error) {
	return s.collect(func(u model.User) bool { return u.ClanID == clanID }), nil
}

func (s *UserStore) CountByClan(ctx context.Context, clanID string) (int, error) {
	users, err := s.ListByClan(ctx, clanID)
	return len(users), err
}

func (s *UserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return model.ErrUserAlreadyExists
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrUserAlreadyExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *UserStore) Update(_ context.Context, u model.User) error {
	return s.mutate(u.ID, func(existing *model.User) error {
		for id, other := range s.users {
			if id != u.ID && other.Email == u.Email {
				return model.ErrUserAlreadyExists
			}
		}
		existing.Email = u.Email
		existing.Username = u.Username
		existing.Role = u.Role
		existing.ClanID = u.ClanID
		existing.GameID = u.GameID
		existing.IsActive = u.IsActive
		existing.Power = u.Power
		existing.WeeklyKills = u.WeeklyKills
		if u.PasswordHash != "" {
			existing.PasswordHash = u.PasswordHash
		}
		return nil
	})
}

func (s *UserStore) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	return s.mutate(id, func(u *model.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (s *UserStore) UpdateTwoFactor(_ context.Context, id string, enabled bool, secret string) error {
	return s.mutate(id, func(u *model.User) error {
		u.TwoFactorEnabled = enabled
		u.TwoFactorSecret = secret
		return nil
	})
}

func (s *UserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return s.mutate(id, func(u *model.User) error {
		stamp := at
		u.LastLoginAt = &stamp
		return nil
	})
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) ResetWeeklyKills(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, u := range s.users {
		u.WeeklyKills = 0
		u.UpdatedAt = now
		s.users[id] = u
	}
	return nil
}

func (s *UserStore) mutate(id string, fn func(u *model.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *UserStore) collect(keep func(model.User) bool) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}
