package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clan-manager/internal/model"
	"clan-manager/internal/security"
)

const DefaultMainClanID = "HQ"

type BootstrapOptions struct {
	AdminEmail    string
	AdminPassword string
	MainClanID    string
}

// Bootstrap seeds the first super admin and the main clan they lead. It does
// nothing when no admin credentials are configured or a super admin exists.
func Bootstrap(ctx context.Context, opts BootstrapOptions, users UserStore, clans ClanStore, hasher *security.PasswordHasher) error {
	email := strings.TrimSpace(opts.AdminEmail)
	if email == "" || opts.AdminPassword == "" {
		slog.Info("bootstrap skipped; no admin credentials configured")
		return nil
	}

	exists, err := users.ExistsByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("check super admin: %w", err)
	}
	if exists {
		return nil
	}

	if err := validateEmail(email); err != nil {
		return fmt.Errorf("ADMIN_EMAIL: %w", err)
	}
	if err := security.ValidatePasswordPolicy(opts.AdminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	clanID := strings.TrimSpace(opts.MainClanID)
	if clanID == "" {
		clanID = DefaultMainClanID
	}
	if err := validateClanID(clanID); err != nil {
		return fmt.Errorf("MAIN_CLAN_ID: %w", err)
	}

	hash, err := hasher.Hash(opts.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Username:     usernameFromEmail(email),
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	_, err = clans.FindMain(ctx)
	switch {
	case errors.Is(err, model.ErrClanNotFound):
		hq := model.Clan{
			ID:          clanID,
			Name:        clanID,
			LeaderID:    admin.ID,
			MemberLimit: model.MaxMemberLimit,
			IsActive:    true,
			IsMainClan:  true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := clans.Create(ctx, hq); err != nil {
			return fmt.Errorf("create main clan: %w", err)
		}
		admin.ClanID = hq.ID
		if err := users.Update(ctx, admin); err != nil {
			return fmt.Errorf("attach super admin to main clan: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find main clan: %w", err)
	}

	slog.Info("bootstrap complete", "admin_id", admin.ID, "main_clan_id", clanID)
	return nil
}
