package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clan-manager/internal/mail"
	"clan-manager/internal/model"
	"clan-manager/internal/security"
	"clan-manager/pkg/apierror"
)

const resetRequestedMessage = "If an account exists for this email, a password reset link has been sent."

type authEventRecorder interface {
	AuthEvent(event string, outcome string)
}

type AuthOptions struct {
	FrontendURL string
}

// AuthService runs the login, two-factor, password and token flows on top
// of the credential verifier, TOTP engine and token issuer.
type AuthService struct {
	users       UserStore
	clans       ClanStore
	credentials *security.CredentialVerifier
	hasher      *security.PasswordHasher
	tokens      *security.TokenIssuer
	totp        *security.TOTP
	mailer      mail.Mailer
	activity    *ActivityService
	events      authEventRecorder
	frontendURL string
}

func NewAuthService(
	opts AuthOptions,
	users UserStore,
	clans ClanStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	totp *security.TOTP,
	mailer mail.Mailer,
	activity *ActivityService,
) *AuthService {
	frontendURL := strings.TrimRight(strings.TrimSpace(opts.FrontendURL), "/")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	return &AuthService{
		users:       users,
		clans:       clans,
		credentials: security.NewCredentialVerifier(users, hasher),
		hasher:      hasher,
		tokens:      tokens,
		totp:        totp,
		mailer:      mailer,
		activity:    activity,
		frontendURL: frontendURL,
	}
}

func (s *AuthService) SetEventRecorder(events authEventRecorder) {
	s.events = events
}

func (s *AuthService) record(event string, outcome string) {
	if s.events != nil {
		s.events.AuthEvent(event, outcome)
	}
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		s.record("login", "failure")
		return model.LoginResponse{}, apierror.InvalidCredentials()
	}

	user, err := s.credentials.Verify(ctx, email, req.Password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		s.record("login", "failure")
		slog.Info("login rejected", "reason", "invalid_credentials")
		return model.LoginResponse{}, apierror.InvalidCredentials()
	}
	if err != nil {
		return model.LoginResponse{}, err
	}

	if user.TwoFactorEnabled {
		temp, err := s.tokens.IssueTwoFactorToken(user)
		if err != nil {
			return model.LoginResponse{}, err
		}
		s.record("login", "two_factor_required")
		return model.LoginResponse{
			RequireTwoFactor: true,
			TempToken:        temp,
			User:             user.PendingSession(),
		}, nil
	}

	pair, err := s.completeLogin(ctx, user, model.ActivityLogin, "signed in with password")
	if err != nil {
		return model.LoginResponse{}, err
	}
	s.record("login", "success")

	return model.LoginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Session(),
	}, nil
}

func (s *AuthService) completeLogin(ctx context.Context, user model.User, action model.ActivityAction, detail string) (model.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to stamp last login", "user_id", user.ID, "error", err)
	}
	s.activity.Record(ctx, user.ID, action, detail)
	slog.Info("user signed in", "user_id", user.ID, "role", string(user.Role))

	return pair, nil
}

// VerifyTwoFactor exchanges a temporary token plus a TOTP code for a full
// token pair. The body user id must match the token subject.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, caller *model.AuthClaims, req model.VerifyTwoFactorRequest) (model.VerifyTwoFactorResponse, error) {
	if caller == nil {
		return model.VerifyTwoFactorResponse{}, apierror.Unauthorized("authentication required")
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID {
		return model.VerifyTwoFactorResponse{}, apierror.Forbidden("token does not belong to this user")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.VerifyTwoFactorResponse{}, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return model.VerifyTwoFactorResponse{}, apierror.BadRequest("two-factor authentication is not enabled", "")
	}

	if !s.totp.VerifyCode(req.Code, user.TwoFactorSecret) {
		s.record("verify_2fa", "failure")
		slog.Info("two-factor verification failed", "user_id", user.ID)
		return model.VerifyTwoFactorResponse{}, apierror.InvalidCode()
	}

	pair, err := s.completeLogin(ctx, user, model.ActivityTwoFactorAuth, "completed two-factor sign in")
	if err != nil {
		return model.VerifyTwoFactorResponse{}, err
	}
	s.record("verify_2fa", "success")

	return model.VerifyTwoFactorResponse{
		Verified:     true,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Session(),
	}, nil
}

// EnableTwoFactor stores a new pending secret. Two-factor stays off until
// ConfirmTwoFactor sees a valid code for it.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID string) (model.EnableTwoFactorResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.EnableTwoFactorResponse{}, err
	}
	if user.TwoFactorEnabled {
		return model.EnableTwoFactorResponse{}, apierror.BadRequest("two-factor authentication is already enabled", "")
	}

	secret, uri, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return model.EnableTwoFactorResponse{}, err
	}
	qr, err := security.RenderQRCode(uri)
	if err != nil {
		return model.EnableTwoFactorResponse{}, err
	}

	if err := s.users.UpdateTwoFactor(ctx, user.ID, false, secret); err != nil {
		return model.EnableTwoFactorResponse{}, fmt.Errorf("store pending two-factor secret: %w", err)
	}

	return model.EnableTwoFactorResponse{Secret: secret, QRCodeURL: qr}, nil
}

func (s *AuthService) ConfirmTwoFactor(ctx context.Context, userID string, code string) (model.ConfirmTwoFactorResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.ConfirmTwoFactorResponse{}, err
	}
	if user.TwoFactorSecret == "" {
		return model.ConfirmTwoFactorResponse{}, apierror.BadRequest("two-factor setup has not been started", "")
	}
	if user.TwoFactorEnabled {
		return model.ConfirmTwoFactorResponse{}, apierror.BadRequest("two-factor authentication is already enabled", "")
	}

	if !s.totp.VerifyCode(code, user.TwoFactorSecret) {
		s.record("confirm_2fa", "failure")
		return model.ConfirmTwoFactorResponse{}, apierror.InvalidCode()
	}

	if err := s.users.UpdateTwoFactor(ctx, user.ID, true, user.TwoFactorSecret); err != nil {
		return model.ConfirmTwoFactorResponse{}, fmt.Errorf("enable two-factor: %w", err)
	}
	s.activity.Record(ctx, user.ID, model.ActivityTwoFactorEnabled, "enabled two-factor authentication")
	s.record("confirm_2fa", "success")

	return model.ConfirmTwoFactorResponse{Enabled: true}, nil
}

func (s *AuthService) DisableTwoFactor(ctx context.Context, userID string, code string) (model.SuccessResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return model.SuccessResponse{}, apierror.BadRequest("two-factor authentication is not enabled", "")
	}

	if !s.totp.VerifyCode(code, user.TwoFactorSecret) {
		s.record("disable_2fa", "failure")
		return model.SuccessResponse{}, apierror.InvalidCode()
	}

	if err := s.users.UpdateTwoFactor(ctx, user.ID, false, ""); err != nil {
		return model.SuccessResponse{}, fmt.Errorf("disable two-factor: %w", err)
	}
	s.activity.Record(ctx, user.ID, model.ActivityTwoFactorDisabled, "disabled two-factor authentication")
	s.record("disable_2fa", "success")

	return model.SuccessResponse{Success: true}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) (model.SuccessResponse, error) {
	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return model.SuccessResponse{}, apierror.Validation(err.Error(), "newPassword")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if !s.hasher.Matches(user.PasswordHash, req.CurrentPassword) {
		s.record("change_password", "failure")
		return model.SuccessResponse{}, apierror.New(apierror.CodeInvalidCredentials, "current password is incorrect", "", 401)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return model.SuccessResponse{}, err
	}
	s.activity.Record(ctx, user.ID, model.ActivityPasswordChanged, "changed password")
	s.record("change_password", "success")

	return model.SuccessResponse{Success: true}, nil
}

// RequestPasswordReset answers identically whether or not the email is
// registered. Lookup and delivery failures are only logged.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) model.SuccessResponse {
	response := model.SuccessResponse{Success: true, Message: resetRequestedMessage}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			slog.Error("password reset lookup failed", "error", err)
		}
		return response
	}

	token, err := s.tokens.IssueActionToken(user, security.ActionResetPassword, security.PasswordResetTTL)
	if err != nil {
		slog.Error("password reset token issue failed", "user_id", user.ID, "error", err)
		return response
	}

	link := s.frontendURL + "/reset-password?token=" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		slog.Warn("password reset mail failed", "user_id", user.ID, "error", err)
	}
	s.activity.Record(ctx, user.ID, model.ActivityPasswordResetRequested, "requested a password reset")
	s.record("request_password_reset", "sent")

	return response
}

// ResetPassword accepts any unexpired reset token; tokens are not marked used.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (model.SuccessResponse, error) {
	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return model.SuccessResponse{}, apierror.Validation(err.Error(), "newPassword")
	}

	invalid := apierror.BadRequest("reset token invalid or expired", "")

	claims, err := s.tokens.Verify(req.Token)
	if err != nil || claims.Action != security.ActionResetPassword {
		s.record("reset_password", "failure")
		return model.SuccessResponse{}, invalid
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.SuccessResponse{}, invalid
	}
	if err != nil {
		return model.SuccessResponse{}, err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return model.SuccessResponse{}, err
	}
	s.activity.Record(ctx, user.ID, model.ActivityPasswordResetCompleted, "reset password via emailed link")
	s.record("reset_password", "success")

	return model.SuccessResponse{Success: true}, nil
}

// Refresh issues a new pair from the identity as currently stored. The
// presented refresh token stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	invalid := apierror.BadRequest("refresh token invalid or expired", "")

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || !claims.IsRefreshToken {
		s.record("refresh", "failure")
		return model.TokenPair{}, invalid
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		s.record("refresh", "failure")
		return model.TokenPair{}, apierror.Unauthorized("user no longer exists")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.record("refresh", "success")
	return pair, nil
}

// RegisterClanLeader creates a leader account with a random password for an
// existing clan and mails the activation link. The new account replaces any
// previous leader of the clan, who is demoted to member.
func (s *AuthService) RegisterClanLeader(ctx context.Context, caller *model.AuthClaims, req model.RegisterLeaderRequest) (model.SuccessResponse, error) {
	if caller == nil {
		return model.SuccessResponse{}, apierror.Unauthorized("authentication required")
	}
	admin, err := s.findUser(ctx, caller.UserID)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if admin.Role != model.RoleSuperAdmin {
		return model.SuccessResponse{}, apierror.Forbidden("only super admins can register clan leaders")
	}

	clanID := strings.TrimSpace(req.ClanID)
	email := strings.TrimSpace(req.Email)
	if err := validateClanID(clanID); err != nil {
		return model.SuccessResponse{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.SuccessResponse{}, err
	}
	if req.InitialMemberCount < 1 || req.InitialMemberCount > 50 {
		return model.SuccessResponse{}, apierror.Validation("initialMemberCount must be between 1 and 50", "initialMemberCount")
	}

	clan, err := s.clans.FindByID(ctx, clanID)
	if errors.Is(err, model.ErrClanNotFound) {
		return model.SuccessResponse{}, apierror.BadRequest("clan does not exist", clanID)
	}
	if err != nil {
		return model.SuccessResponse{}, err
	}

	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if taken {
		return model.SuccessResponse{}, apierror.Conflict("email is already registered", email)
	}

	password, err := security.GenerateTemporaryPassword()
	if err != nil {
		return model.SuccessResponse{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.SuccessResponse{}, err
	}

	now := time.Now().UTC()
	leader := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Username:     usernameFromEmail(email),
		Role:         model.RoleClanLeader,
		ClanID:       clan.ID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The mail goes out before anything is stored so a delivery failure
	// leaves the email free for a retry.
	token, err := s.tokens.IssueActionToken(leader, security.ActionActivate, security.ActivationTTL)
	if err != nil {
		return model.SuccessResponse{}, err
	}
	if err := s.mailer.SendLeaderActivation(ctx, leader.Email, mail.ActivationMail{
		ClanID:            clan.ID,
		ActivationLink:    s.frontendURL + "/activate?token=" + token,
		TemporaryPassword: password,
	}); err != nil {
		return model.SuccessResponse{}, fmt.Errorf("send activation mail: %w", err)
	}

	if err := s.users.Create(ctx, leader); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.SuccessResponse{}, apierror.Conflict("email is already registered", email)
		}
		return model.SuccessResponse{}, err
	}
	if err := s.installLeader(ctx, clan, leader.ID); err != nil {
		return model.SuccessResponse{}, err
	}

	s.activity.Record(ctx, admin.ID, model.ActivityLeaderCreated,
		fmt.Sprintf("admin %s created leader %s for clan %s (initial members: %d)", admin.Email, leader.Email, clan.ID, req.InitialMemberCount))
	slog.Info("clan leader registered", "clan_id", clan.ID, "leader_id", leader.ID, "admin_id", admin.ID)

	return model.SuccessResponse{Success: true, Message: "clan leader account created and activation mail sent"}, nil
}

func (s *AuthService) installLeader(ctx context.Context, clan model.Clan, leaderID string) error {
	if clan.LeaderID != "" && clan.LeaderID != leaderID {
		previous, err := s.users.FindByID(ctx, clan.LeaderID)
		switch {
		case err == nil && previous.Role == model.RoleClanLeader:
			previous.Role = model.RoleClanMember
			if err := s.users.Update(ctx, previous); err != nil {
				return fmt.Errorf("demote previous leader: %w", err)
			}
		case err != nil && !errors.Is(err, model.ErrUserNotFound):
			return err
		}
	}

	clan.LeaderID = leaderID
	if err := s.clans.Update(ctx, clan); err != nil {
		return fmt.Errorf("assign clan leader: %w", err)
	}
	return nil
}

// Me returns the caller's profile as currently stored; a deleted account
// is reported as unauthenticated.
func (s *AuthService) Me(ctx context.Context, userID string) (model.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.UserProfile{}, apierror.Unauthorized("user no longer exists")
	}
	if err != nil {
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *AuthService) Activity(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	return s.activity.ListForUser(ctx, userID, limit)
}

func (s *AuthService) findUser(ctx context.Context, id string) (model.User, error) {
	return findUser(ctx, s.users, id)
}
