package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clan-manager/internal/model"
	"clan-manager/internal/security"
	"clan-manager/pkg/apierror"
)

type UserService struct {
	users  UserStore
	clans  ClanStore
	hasher *security.PasswordHasher
}

func NewUserService(users UserStore, clans ClanStore, hasher *security.PasswordHasher) *UserService {
	return &UserService{users: users, clans: clans, hasher: hasher}
}

// Leaders are only made through a clan's leaderId so each clan has exactly one.
var errLeaderRoleAssignment = apierror.Validation("clan_leader is granted by setting a clan's leaderId", "role")

// Create adds a user. Users created by a clan leader always join the
// leader's clan as members.
func (s *UserService) Create(ctx context.Context, caller *model.AuthClaims, req model.CreateUserRequest) (model.UserProfile, error) {
	if err := requireCaller(caller); err != nil {
		return model.UserProfile{}, err
	}

	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return model.UserProfile{}, err
	}
	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		return model.UserProfile{}, apierror.Validation(err.Error(), "password")
	}

	role := model.RoleClanMember
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok {
			return model.UserProfile{}, apierror.Validation("role must be super_admin, clan_leader or clan_member", "role")
		}
		role = parsed
	}
	if role == model.RoleClanLeader {
		return model.UserProfile{}, errLeaderRoleAssignment
	}
	clanID := strings.TrimSpace(deref(req.ClanID))

	if !caller.IsSuperAdmin() {
		if role != model.RoleClanMember && strings.TrimSpace(req.Role) != "" {
			return model.UserProfile{}, apierror.Forbidden("clan leaders can only create clan members")
		}
		scoped, err := scopeToCaller(caller, clanID)
		if err != nil {
			return model.UserProfile{}, err
		}
		role = model.RoleClanMember
		clanID = scoped
	}

	if clanID != "" {
		if err := s.ensureClanHasRoom(ctx, clanID); err != nil {
			return model.UserProfile{}, err
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.UserProfile{}, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = usernameFromEmail(email)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		Role:         role,
		ClanID:       clanID,
		GameID:       strings.TrimSpace(deref(req.GameID)),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.UserProfile{}, err
	}

	slog.Info("user created", "user_id", user.ID, "role", string(user.Role), "clan_id", user.ClanID, "by", caller.UserID)
	return user.Profile(), nil
}

func (s *UserService) List(ctx context.Context) ([]model.UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

func (s *UserService) ListByClan(ctx context.Context, caller *model.AuthClaims, clanID string) ([]model.UserProfile, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	scoped, err := scopeToCaller(caller, clanID)
	if err != nil {
		return nil, err
	}
	if _, err := findClan(ctx, s.clans, scoped); err != nil {
		return nil, err
	}

	users, err := s.users.ListByClan(ctx, scoped)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

func (s *UserService) Get(ctx context.Context, caller *model.AuthClaims, id string) (model.UserProfile, error) {
	user, err := s.scopedUser(ctx, caller, id)
	if err != nil {
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *UserService) Update(ctx context.Context, caller *model.AuthClaims, id string, req model.UpdateUserRequest) (model.UserProfile, error) {
	user, err := s.scopedUser(ctx, caller, id)
	if err != nil {
		return model.UserProfile{}, err
	}

	if !caller.IsSuperAdmin() {
		if req.Role != nil && model.Role(strings.TrimSpace(*req.Role)) != user.Role {
			return model.UserProfile{}, apierror.Forbidden("clan leaders cannot change roles")
		}
		if req.ClanID != nil && strings.TrimSpace(*req.ClanID) != user.ClanID {
			return model.UserProfile{}, apierror.Forbidden("clan leaders cannot move users to another clan")
		}
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := validateEmail(email); err != nil {
			return model.UserProfile{}, err
		}
		user.Email = email
	}
	if req.Username != nil {
		if strings.TrimSpace(*req.Username) == "" {
			return model.UserProfile{}, apierror.Validation("username cannot be empty", "username")
		}
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.GameID != nil {
		user.GameID = strings.TrimSpace(*req.GameID)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := security.ValidatePasswordPolicy(*req.Password); err != nil {
			return model.UserProfile{}, apierror.Validation(err.Error(), "password")
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return model.UserProfile{}, err
		}
		user.PasswordHash = hash
	}

	if caller.IsSuperAdmin() {
		if err := s.applyPlacement(ctx, &user, req.Role, req.ClanID); err != nil {
			return model.UserProfile{}, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return model.UserProfile{}, err
	}
	return s.reload(ctx, user.ID)
}

// applyPlacement changes role and clan. The current leader of a clan keeps
// both until the clan is handed to someone else.
func (s *UserService) applyPlacement(ctx context.Context, user *model.User, rawRole *string, rawClan *string) error {
	role := user.Role
	if rawRole != nil {
		parsed, ok := model.ParseRole(*rawRole)
		if !ok {
			return apierror.Validation("role must be super_admin, clan_leader or clan_member", "role")
		}
		role = parsed
	}
	clanID := user.ClanID
	if rawClan != nil {
		clanID = strings.TrimSpace(*rawClan)
	}
	if role == user.Role && clanID == user.ClanID {
		return nil
	}

	led, err := s.ledClan(ctx, user.ID)
	if err != nil {
		return err
	}
	if led != "" {
		return apierror.Conflict("user leads a clan; assign a new leader first", led)
	}
	if role == model.RoleClanLeader {
		return errLeaderRoleAssignment
	}

	if clanID != "" && clanID != user.ClanID {
		if err := s.ensureClanHasRoom(ctx, clanID); err != nil {
			return err
		}
	}
	user.Role = role
	user.ClanID = clanID
	return nil
}

func (s *UserService) Delete(ctx context.Context, caller *model.AuthClaims, id string) error {
	user, err := s.scopedUser(ctx, caller, id)
	if err != nil {
		return err
	}
	if user.ID == caller.UserID {
		return apierror.Forbidden("you cannot delete your own account")
	}

	led, err := s.ledClan(ctx, user.ID)
	if err != nil {
		return err
	}
	if led != "" {
		return apierror.Conflict("user leads a clan; assign a new leader first", led)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", user.ID, "by", caller.UserID)
	return nil
}

func (s *UserService) UpdatePower(ctx context.Context, caller *model.AuthClaims, id string, power int64) (model.UserProfile, error) {
	if power < 0 {
		return model.UserProfile{}, apierror.Validation("power cannot be negative", "power")
	}
	return s.updateStats(ctx, caller, id, func(u *model.User) { u.Power = power })
}

func (s *UserService) UpdateKills(ctx context.Context, caller *model.AuthClaims, id string, kills int64) (model.UserProfile, error) {
	if kills < 0 {
		return model.UserProfile{}, apierror.Validation("kills cannot be negative", "kills")
	}
	return s.updateStats(ctx, caller, id, func(u *model.User) { u.WeeklyKills = kills })
}

func (s *UserService) ResetWeeklyKills(ctx context.Context) error {
	return s.users.ResetWeeklyKills(ctx)
}

func (s *UserService) updateStats(ctx context.Context, caller *model.AuthClaims, id string, apply func(u *model.User)) (model.UserProfile, error) {
	user, err := s.scopedUser(ctx, caller, id)
	if err != nil {
		return model.UserProfile{}, err
	}
	apply(&user)
	if err := s.users.Update(ctx, user); err != nil {
		return model.UserProfile{}, err
	}
	return s.reload(ctx, user.ID)
}

// scopedUser loads a user the caller may manage: any user for super admins,
// users of their own clan for everyone else.
func (s *UserService) scopedUser(ctx context.Context, caller *model.AuthClaims, id string) (model.User, error) {
	if err := requireCaller(caller); err != nil {
		return model.User{}, err
	}
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return model.User{}, err
	}
	if caller.IsSuperAdmin() {
		return user, nil
	}
	if caller.ClanID == "" || user.ClanID != caller.ClanID {
		return model.User{}, apierror.Forbidden("you can only manage users of your own clan")
	}
	return user, nil
}

func (s *UserService) ensureClanHasRoom(ctx context.Context, clanID string) error {
	clan, err := s.clans.FindByID(ctx, clanID)
	if errors.Is(err, model.ErrClanNotFound) {
		return apierror.BadRequest("clan does not exist", clanID)
	}
	if err != nil {
		return err
	}
	count, err := s.users.CountByClan(ctx, clan.ID)
	if err != nil {
		return err
	}
	if count >= clan.MemberLimit {
		return apierror.BadRequest("clan has reached its member limit", clan.ID)
	}
	return nil
}

func (s *UserService) ledClan(ctx context.Context, userID string) (string, error) {
	clans, err := s.clans.List(ctx, false)
	if err != nil {
		return "", err
	}
	for _, c := range clans {
		if c.LeaderID == userID {
			return c.ID, nil
		}
	}
	return "", nil
}

func (s *UserService) reload(ctx context.Context, id string) (model.UserProfile, error) {
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}

func profiles(users []model.User) []model.UserProfile {
	out := make([]model.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
