package service

import (
	"context"
	"log/slog"
	"time"

	"clan-manager/internal/model"
)

const defaultActivityLimit = 50

// ActivityService appends to the per-user activity log. Write failures are
// logged and never fail the calling flow.
type ActivityService struct {
	store ActivityStore
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

func (s *ActivityService) Record(ctx context.Context, userID string, action model.ActivityAction, detail string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.ActivityEntry{
		UserID:     userID,
		Action:     action,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		slog.Warn("activity log write failed", "user_id", userID, "action", string(action), "error", err)
	}
}

func (s *ActivityService) ListForUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultActivityLimit
	}
	return s.store.ListByUser(ctx, userID, limit)
}
