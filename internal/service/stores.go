package service

import (
	"context"
	"time"

	"clan-manager/internal/model"
)

// The store interfaces are satisfied by the PostgreSQL repositories in
// internal/repository and by the in-memory stores in internal/repository/memory.
// Lookups return the model.Err*NotFound sentinels; inserts that collide on a
// unique key return model.ErrUserAlreadyExists or model.ErrClanAlreadyExists.

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByRole(ctx context.Context, role model.Role) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	ListByClan(ctx context.Context, clanID string) ([]model.User, error)
	CountByClan(ctx context.Context, clanID string) (int, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateTwoFactor(ctx context.Context, id string, enabled bool, secret string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ResetWeeklyKills(ctx context.Context) error
}

type ClanStore interface {
	FindByID(ctx context.Context, id string) (model.Clan, error)
	FindMain(ctx context.Context) (model.Clan, error)
	List(ctx context.Context, activeOnly bool) ([]model.Clan, error)
	Create(ctx context.Context, c model.Clan) error
	Update(ctx context.Context, c model.Clan) error
	Delete(ctx context.Context, id string) error
	ResetWeeklyKills(ctx context.Context) error
}

type TaskStore interface {
	FindByID(ctx context.Context, id string) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, t model.Task) error
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, id string) error
}

type AnnouncementStore interface {
	FindByID(ctx context.Context, id string) (model.Announcement, error)
	List(ctx context.Context, filter model.AnnouncementFilter) ([]model.Announcement, error)
	CountPinned(ctx context.Context, clanID string) (int, error)
	Create(ctx context.Context, a model.Announcement) error
	Update(ctx context.Context, a model.Announcement) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (model.Announcement, error)
}

type ActivityStore interface {
	Append(ctx context.Context, entry model.ActivityEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error)
}
