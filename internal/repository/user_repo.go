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

const userColumns = `id, email, password_hash, username, role, COALESCE(clan_id, ''), COALESCE(game_id, ''),
	is_active, two_factor_enabled, COALESCE(two_factor_secret, ''), last_login_at,
	power, weekly_kills, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &role, &u.ClanID, &u.GameID,
		&u.IsActive, &u.TwoFactorEnabled, &u.TwoFactorSecret, &u.LastLoginAt,
		&u.Power, &u.WeeklyKills, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmail matches the address exactly, case included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByRole(ctx context.Context, role model.Role) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE role = $1)`, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
}

func (r *UserRepository) ListByClan(ctx context.Context, clanID string) ([]model.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE clan_id = $1 ORDER BY username`, clanID)
}

func (r *UserRepository) query(ctx context.Context, sql string, args ...any) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountByClan(ctx context.Context, clanID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE clan_id = $1`, clanID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clan users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, username, role, clan_id, game_id, is_active,
		                    power, weekly_kills, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)`,
		u.ID, u.Email, u.PasswordHash, u.Username, string(u.Role), u.ClanID, u.GameID, u.IsActive,
		u.Power, u.WeeklyKills, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes the profile fields. Password and two-factor state have
// their own statements.
func (r *UserRepository) Update(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email = $2, username = $3, role = $4, clan_id = NULLIF($5, ''), game_id = NULLIF($6, ''),
		     is_active = $7, power = $8, weekly_kills = $9, updated_at = $10
		 WHERE id = $1`,
		u.ID, u.Email, u.Username, string(u.Role), u.ClanID, u.GameID,
		u.IsActive, u.Power, u.WeeklyKills, time.Now().UTC())
	if isUniqueViolation(err) {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	if u.PasswordHash != "" {
		return r.UpdatePassword(ctx, u.ID, u.PasswordHash)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
}

func (r *UserRepository) UpdateTwoFactor(ctx context.Context, id string, enabled bool, secret string) error {
	return r.exec(ctx, "update two-factor state",
		`UPDATE users SET two_factor_enabled = $2, two_factor_secret = NULLIF($3, ''), updated_at = $4 WHERE id = $1`,
		id, enabled, secret, time.Now().UTC())
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "update last login",
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *UserRepository) ResetWeeklyKills(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET weekly_kills = 0, updated_at = $1`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset user weekly kills: %w", err)
	}
	return nil
}

func (r *UserRepository) exec(ctx context.Context, op string, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
