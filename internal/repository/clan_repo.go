package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clan-manager/internal/model"
)

const clanColumns = `id, name, COALESCE(description, ''), COALESCE(logo_url, ''), COALESCE(leader_id, ''),
	total_power, weekly_kills, member_limit, is_active, is_main_clan, COALESCE(activation_code, ''),
	created_at, updated_at`

type ClanRepository struct {
	pool *pgxpool.Pool
}

func NewClanRepository(pool *pgxpool.Pool) *ClanRepository {
	return &ClanRepository{pool: pool}
}

func scanClan(row pgx.Row) (model.Clan, error) {
	var c model.Clan
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.LogoURL, &c.LeaderID,
		&c.TotalPower, &c.WeeklyKills, &c.MemberLimit, &c.IsActive, &c.IsMainClan, &c.ActivationCode,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *ClanRepository) FindByID(ctx context.Context, id string) (model.Clan, error) {
	return r.findOne(ctx, `SELECT `+clanColumns+` FROM clans WHERE id = $1`, id)
}

func (r *ClanRepository) FindMain(ctx context.Context) (model.Clan, error) {
	return r.findOne(ctx, `SELECT `+clanColumns+` FROM clans WHERE is_main_clan LIMIT 1`)
}

func (r *ClanRepository) findOne(ctx context.Context, sql string, args ...any) (model.Clan, error) {
	c, err := scanClan(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Clan{}, model.ErrClanNotFound
	}
	if err != nil {
		return model.Clan{}, fmt.Errorf("find clan: %w", err)
	}
	return c, nil
}

func (r *ClanRepository) List(ctx context.Context, activeOnly bool) ([]model.Clan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clanColumns+` FROM clans WHERE ($1 = false OR is_active) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list clans: %w", err)
	}
	defer rows.Close()

	clans := make([]model.Clan, 0)
	for rows.Next() {
		c, err := scanClan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clan: %w", err)
		}
		clans = append(clans, c)
	}
	return clans, rows.Err()
}

func (r *ClanRepository) Create(ctx context.Context, c model.Clan) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO clans (id, name, description, logo_url, leader_id, total_power, weekly_kills,
		                    member_limit, is_active, is_main_clan, activation_code, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		c.ID, c.Name, c.Description, c.LogoURL, c.LeaderID, c.TotalPower, c.WeeklyKills,
		c.MemberLimit, c.IsActive, c.IsMainClan, c.ActivationCode, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrClanAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create clan: %w", err)
	}
	return nil
}

func (r *ClanRepository) Update(ctx context.Context, c model.Clan) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clans
		 SET name = $2, description = NULLIF($3, ''), logo_url = NULLIF($4, ''), leader_id = NULLIF($5, ''),
		     total_power = $6, weekly_kills = $7, member_limit = $8, is_active = $9,
		     activation_code = NULLIF($10, ''), updated_at = $11
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.LogoURL, c.LeaderID, c.TotalPower, c.WeeklyKills,
		c.MemberLimit, c.IsActive, c.ActivationCode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update clan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrClanNotFound
	}
	return nil
}

func (r *ClanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete clan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrClanNotFound
	}
	return nil
}

func (r *ClanRepository) ResetWeeklyKills(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE clans SET weekly_kills = 0, updated_at = $1`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset clan weekly kills: %w", err)
	}
	return nil
}
