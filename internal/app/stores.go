package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"clan-manager/internal/repository"
	"clan-manager/internal/repository/memory"
	"clan-manager/internal/service"
)

// Stores groups the persistence backends the services run on.
type Stores struct {
	Users         service.UserStore
	Clans         service.ClanStore
	Tasks         service.TaskStore
	Announcements service.AnnouncementStore
	Activity      service.ActivityStore
}

func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Users:         repository.NewUserRepository(pool),
		Clans:         repository.NewClanRepository(pool),
		Tasks:         repository.NewTaskRepository(pool),
		Announcements: repository.NewAnnouncementRepository(pool),
		Activity:      repository.NewActivityRepository(pool),
	}
}

// MemoryStores keeps everything in process memory; data is lost on exit.
func MemoryStores() Stores {
	return Stores{
		Users:         memory.NewUserStore(),
		Clans:         memory.NewClanStore(),
		Tasks:         memory.NewTaskStore(),
		Announcements: memory.NewAnnouncementStore(),
		Activity:      memory.NewActivityStore(),
	}
}
