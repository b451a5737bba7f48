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
	"clan-manager/pkg/apierror"
)

type ClanService struct {
	clans ClanStore
	users UserStore
}

func NewClanService(clans ClanStore, users UserStore) *ClanService {
	return &ClanService{clans: clans, users: users}
}

func newActivationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// Create registers a clan and installs its leader. Regular clans start
// inactive with an activation code; the main clan starts active.
func (s *ClanService) Create(ctx context.Context, req model.CreateClanRequest) (model.ClanWithCode, error) {
	id := strings.TrimSpace(req.ID)
	if err := validateClanID(id); err != nil {
		return model.ClanWithCode{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.ClanWithCode{}, apierror.Validation("name is required", "name")
	}
	limit, err := memberLimit(req.MemberLimit)
	if err != nil {
		return model.ClanWithCode{}, err
	}

	if _, err := s.clans.FindByID(ctx, id); err == nil {
		return model.ClanWithCode{}, apierror.Conflict("clan id is already taken", id)
	} else if !errors.Is(err, model.ErrClanNotFound) {
		return model.ClanWithCode{}, err
	}

	if req.IsMainClan {
		if _, err := s.clans.FindMain(ctx); err == nil {
			return model.ClanWithCode{}, apierror.Conflict("a main clan already exists", "")
		} else if !errors.Is(err, model.ErrClanNotFound) {
			return model.ClanWithCode{}, err
		}
	}

	leader, err := findUser(ctx, s.users, strings.TrimSpace(req.LeaderID))
	if err != nil {
		return model.ClanWithCode{}, err
	}
	if leader.HasClan() {
		return model.ClanWithCode{}, apierror.Conflict("leader already belongs to a clan", leader.ClanID)
	}

	now := time.Now().UTC()
	clan := model.Clan{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		LogoURL:     strings.TrimSpace(req.LogoURL),
		LeaderID:    leader.ID,
		MemberLimit: limit,
		IsActive:    req.IsMainClan,
		IsMainClan:  req.IsMainClan,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !clan.IsActive {
		clan.ActivationCode = newActivationCode()
	}

	if err := s.clans.Create(ctx, clan); err != nil {
		return model.ClanWithCode{}, err
	}
	if err := s.promote(ctx, leader, clan.ID); err != nil {
		return model.ClanWithCode{}, err
	}

	slog.Info("clan created", "clan_id", clan.ID, "leader_id", leader.ID, "main", clan.IsMainClan)
	return clan.WithCode(), nil
}

func (s *ClanService) ListActive(ctx context.Context) ([]model.Clan, error) {
	return s.clans.List(ctx, true)
}

func (s *ClanService) ListAll(ctx context.Context) ([]model.ClanWithCode, error) {
	clans, err := s.clans.List(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]model.ClanWithCode, 0, len(clans))
	for _, c := range clans {
		out = append(out, c.WithCode())
	}
	return out, nil
}

func (s *ClanService) Main(ctx context.Context) (model.Clan, error) {
	clan, err := s.clans.FindMain(ctx)
	if errors.Is(err, model.ErrClanNotFound) {
		return model.Clan{}, apierror.NotFound("main clan is not configured", "")
	}
	return clan, err
}

func (s *ClanService) Get(ctx context.Context, id string) (model.Clan, error) {
	return findClan(ctx, s.clans, id)
}

func (s *ClanService) Update(ctx context.Context, caller *model.AuthClaims, id string, req model.UpdateClanRequest) (model.Clan, error) {
	clan, err := s.scopedClan(ctx, caller, id)
	if err != nil {
		return model.Clan{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.Clan{}, apierror.Validation("name cannot be empty", "name")
		}
		clan.Name = name
	}
	if req.Description != nil {
		clan.Description = strings.TrimSpace(*req.Description)
	}
	if req.LogoURL != nil {
		clan.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.MemberLimit != nil {
		limit, err := memberLimit(*req.MemberLimit)
		if err != nil {
			return model.Clan{}, err
		}
		count, err := s.users.CountByClan(ctx, clan.ID)
		if err != nil {
			return model.Clan{}, err
		}
		if limit < count {
			return model.Clan{}, apierror.Validation(fmt.Sprintf("clan already has %d members", count), "memberLimit")
		}
		clan.MemberLimit = limit
	}

	if req.LeaderID != nil && strings.TrimSpace(*req.LeaderID) != clan.LeaderID {
		if !caller.IsSuperAdmin() {
			return model.Clan{}, apierror.Forbidden("only super admins can change the clan leader")
		}
		if err := s.handOver(ctx, &clan, strings.TrimSpace(*req.LeaderID)); err != nil {
			return model.Clan{}, err
		}
	}

	if err := s.clans.Update(ctx, clan); err != nil {
		return model.Clan{}, err
	}
	return s.clans.FindByID(ctx, clan.ID)
}

// handOver makes a member of the clan its new leader and demotes the old one.
func (s *ClanService) handOver(ctx context.Context, clan *model.Clan, newLeaderID string) error {
	next, err := findUser(ctx, s.users, newLeaderID)
	if err != nil {
		return err
	}
	if next.ClanID != clan.ID {
		return apierror.BadRequest("the new leader must be a member of the clan", next.ID)
	}

	if clan.LeaderID != "" {
		previous, err := s.users.FindByID(ctx, clan.LeaderID)
		switch {
		case err == nil && previous.Role == model.RoleClanLeader:
			previous.Role = model.RoleClanMember
			if err := s.users.Update(ctx, previous); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, model.ErrUserNotFound):
			return err
		}
	}

	if err := s.promote(ctx, next, clan.ID); err != nil {
		return err
	}
	clan.LeaderID = next.ID
	return nil
}

func (s *ClanService) Delete(ctx context.Context, id string) error {
	clan, err := findClan(ctx, s.clans, id)
	if err != nil {
		return err
	}
	if clan.IsMainClan {
		return apierror.Forbidden("the main clan cannot be deleted")
	}

	members, err := s.users.ListByClan(ctx, clan.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.ID != clan.LeaderID {
			return apierror.Forbidden("clan still has members")
		}
	}

	// Loaded before the delete: the users.clan_id foreign key nulls the
	// placement as soon as the clan row is gone.
	leader, leaderErr := s.users.FindByID(ctx, clan.LeaderID)

	if err := s.clans.Delete(ctx, clan.ID); err != nil {
		return err
	}
	if leaderErr == nil && leader.ClanID == clan.ID {
		leader.ClanID = ""
		if leader.Role == model.RoleClanLeader {
			leader.Role = model.RoleClanMember
		}
		if err := s.users.Update(ctx, leader); err != nil {
			slog.Warn("failed to release leader of deleted clan", "clan_id", clan.ID, "user_id", leader.ID, "error", err)
		}
	}

	slog.Info("clan deleted", "clan_id", clan.ID)
	return nil
}

func (s *ClanService) Activate(ctx context.Context, id string, code string) (model.Clan, error) {
	clan, err := findClan(ctx, s.clans, id)
	if err != nil {
		return model.Clan{}, err
	}
	if clan.IsActive {
		return model.Clan{}, apierror.Conflict("clan is already active", clan.ID)
	}
	if clan.ActivationCode == "" || strings.TrimSpace(code) != clan.ActivationCode {
		return model.Clan{}, apierror.Forbidden("invalid activation code")
	}

	clan.IsActive = true
	clan.ActivationCode = ""
	if err := s.clans.Update(ctx, clan); err != nil {
		return model.Clan{}, err
	}
	slog.Info("clan activated", "clan_id", clan.ID)
	return clan, nil
}

func (s *ClanService) Deactivate(ctx context.Context, id string) (model.ClanWithCode, error) {
	clan, err := findClan(ctx, s.clans, id)
	if err != nil {
		return model.ClanWithCode{}, err
	}
	if clan.IsMainClan {
		return model.ClanWithCode{}, apierror.Forbidden("the main clan cannot be deactivated")
	}

	clan.IsActive = false
	clan.ActivationCode = newActivationCode()
	if err := s.clans.Update(ctx, clan); err != nil {
		return model.ClanWithCode{}, err
	}
	slog.Info("clan deactivated", "clan_id", clan.ID)
	return clan.WithCode(), nil
}

// RecalculatePower sets the clan's total power to the sum of its members'.
func (s *ClanService) RecalculatePower(ctx context.Context, caller *model.AuthClaims, id string) (model.Clan, error) {
	return s.recalculate(ctx, caller, id, func(c *model.Clan, members []model.User) {
		var total int64
		for _, m := range members {
			total += m.Power
		}
		c.TotalPower = total
	})
}

func (s *ClanService) RecalculateKills(ctx context.Context, caller *model.AuthClaims, id string) (model.Clan, error) {
	return s.recalculate(ctx, caller, id, func(c *model.Clan, members []model.User) {
		var total int64
		for _, m := range members {
			total += m.WeeklyKills
		}
		c.WeeklyKills = total
	})
}

func (s *ClanService) recalculate(ctx context.Context, caller *model.AuthClaims, id string, apply func(*model.Clan, []model.User)) (model.Clan, error) {
	clan, err := s.scopedClan(ctx, caller, id)
	if err != nil {
		return model.Clan{}, err
	}
	members, err := s.users.ListByClan(ctx, clan.ID)
	if err != nil {
		return model.Clan{}, err
	}
	apply(&clan, members)
	if err := s.clans.Update(ctx, clan); err != nil {
		return model.Clan{}, err
	}
	return clan, nil
}

// ResetWeeklyKills zeroes weekly kills of every user and every clan.
func (s *ClanService) ResetWeeklyKills(ctx context.Context) error {
	if err := s.users.ResetWeeklyKills(ctx); err != nil {
		return fmt.Errorf("reset user kills: %w", err)
	}
	if err := s.clans.ResetWeeklyKills(ctx); err != nil {
		return fmt.Errorf("reset clan kills: %w", err)
	}
	return nil
}

func (s *ClanService) AddMember(ctx context.Context, caller *model.AuthClaims, clanID string, userID string) (model.UserProfile, error) {
	clan, err := s.scopedClan(ctx, caller, clanID)
	if err != nil {
		return model.UserProfile{}, err
	}
	if !clan.IsActive {
		return model.UserProfile{}, apierror.BadRequest("clan is not active", clan.ID)
	}

	user, err := findUser(ctx, s.users, userID)
	if err != nil {
		return model.UserProfile{}, err
	}
	if user.HasClan() {
		return model.UserProfile{}, apierror.Conflict("user already belongs to a clan", user.ClanID)
	}

	count, err := s.users.CountByClan(ctx, clan.ID)
	if err != nil {
		return model.UserProfile{}, err
	}
	if count >= clan.MemberLimit {
		return model.UserProfile{}, apierror.BadRequest("clan has reached its member limit", clan.ID)
	}

	user.ClanID = clan.ID
	if user.Role != model.RoleSuperAdmin {
		user.Role = model.RoleClanMember
	}
	if err := s.users.Update(ctx, user); err != nil {
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *ClanService) RemoveMember(ctx context.Context, caller *model.AuthClaims, clanID string, userID string) error {
	clan, err := s.scopedClan(ctx, caller, clanID)
	if err != nil {
		return err
	}
	user, err := findUser(ctx, s.users, userID)
	if err != nil {
		return err
	}
	if user.ClanID != clan.ID {
		return apierror.BadRequest("user is not a member of this clan", user.ID)
	}
	if user.ID == clan.LeaderID {
		return apierror.Forbidden("the clan leader cannot be removed")
	}

	user.ClanID = ""
	return s.users.Update(ctx, user)
}

func (s *ClanService) scopedClan(ctx context.Context, caller *model.AuthClaims, id string) (model.Clan, error) {
	if err := requireCaller(caller); err != nil {
		return model.Clan{}, err
	}
	if !caller.IsSuperAdmin() && !caller.IsLeaderOf(id) {
		return model.Clan{}, apierror.Forbidden("you can only manage your own clan")
	}
	return findClan(ctx, s.clans, id)
}

// promote makes the user leader of the clan. Super admins keep their role.
func (s *ClanService) promote(ctx context.Context, user model.User, clanID string) error {
	user.ClanID = clanID
	if user.Role != model.RoleSuperAdmin {
		user.Role = model.RoleClanLeader
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("promote clan leader: %w", err)
	}
	return nil
}

func memberLimit(requested int) (int, error) {
	if requested == 0 {
		return model.DefaultMemberLimit, nil
	}
	if requested < model.MinMemberLimit || requested > model.MaxMemberLimit {
		return 0, apierror.Validation(fmt.Sprintf("memberLimit must be between %d and %d", model.MinMemberLimit, model.MaxMemberLimit), "memberLimit")
	}
	return requested, nil
}
