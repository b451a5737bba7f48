package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clan-manager/internal/model"
)

const announcementColumns = `id, title, content, is_pinned, COALESCE(clan_id, ''), author_id, view_count, created_at, updated_at`

type AnnouncementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(pool *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

func scanAnnouncement(row pgx.Row) (model.Announcement, error) {
	var a model.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.IsPinned, &a.ClanID, &a.AuthorID, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (model.Announcement, error) {
	a, err := scanAnnouncement(r.pool.QueryRow(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Announcement{}, model.ErrAnnouncementNotFound
	}
	if err != nil {
		return model.Announcement{}, fmt.Errorf("find announcement: %w", err)
	}
	return a, nil
}

func (r *AnnouncementRepository) List(ctx context.Context, filter model.AnnouncementFilter) ([]model.Announcement, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if filter.ClanID != "" {
		where = append(where, fmt.Sprintf("clan_id = $%d", argIdx))
		args = append(args, filter.ClanID)
		argIdx++
	}
	if filter.PinnedOnly {
		where = append(where, "is_pinned")
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+kw+"%")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM announcements %s ORDER BY is_pinned DESC, created_at DESC`, announcementColumns, whereClause),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	items := make([]model.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *AnnouncementRepository) CountPinned(ctx context.Context, clanID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM announcements WHERE is_pinned AND clan_id IS NOT DISTINCT FROM NULLIF($1, '')`,
		clanID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pinned announcements: %w", err)
	}
	return count, nil
}

func (r *AnnouncementRepository) Create(ctx context.Context, a model.Announcement) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO announcements (id, title, content, is_pinned, clan_id, author_id, view_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		a.ID, a.Title, a.Content, a.IsPinned, a.ClanID, a.AuthorID, a.ViewCount, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, a model.Announcement) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET title = $2, content = $3, is_pinned = $4, clan_id = NULLIF($5, ''), updated_at = $6
		 WHERE id = $1`,
		a.ID, a.Title, a.Content, a.IsPinned, a.ClanID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAnnouncementNotFound
	}
	return nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAnnouncementNotFound
	}
	return nil
}

func (r *AnnouncementRepository) IncrementViews(ctx context.Context, id string) (model.Announcement, error) {
	a, err := scanAnnouncement(r.pool.QueryRow(ctx,
		`UPDATE announcements SET view_count = view_count + 1 WHERE id = $1 RETURNING `+announcementColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Announcement{}, model.ErrAnnouncementNotFound
	}
	if err != nil {
		return model.Announcement{}, fmt.Errorf("increment announcement views: %w", err)
	}
	return a, nil
}
