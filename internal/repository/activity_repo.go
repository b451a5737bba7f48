package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"clan-manager/internal/model"
)

type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Append(ctx context.Context, entry model.ActivityEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_log (user_id, action, detail, occurred_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4)`,
		entry.UserID, string(entry.Action), entry.Detail, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, action, COALESCE(detail, ''), occurred_at
		 FROM activity_log WHERE user_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActivityEntry, 0)
	for rows.Next() {
		var e model.ActivityEntry
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &action, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Action = model.ActivityAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
