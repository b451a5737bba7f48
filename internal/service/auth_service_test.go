package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/mail"
	"clan-manager/internal/model"
	"clan-manager/internal/security"
	"clan-manager/pkg/apierror"
)

func TestLoginIssuesTokenPair(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	resp, err := env.auth.Login(ctx, model.LoginRequest{Email: "leader@x.com", Password: testPassword})
	require.NoError(t, err)
	require.False(t, resp.RequireTwoFactor)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RoleClanLeader, resp.User.Role)
	require.NotNil(t, resp.User.ClanID)
	assert.Equal(t, "Alpha_01", *resp.User.ClanID)

	claims, err := env.tokens.ValidateAccessToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, leader.ID, claims.UserID)
	assert.Equal(t, model.RoleClanLeader, claims.Role)
	assert.Equal(t, "Alpha_01", claims.ClanID)
	assert.False(t, claims.TwoFactorPending)

	stored, err := env.users.FindByID(ctx, leader.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	entries, err := env.activity.ListByUser(ctx, leader.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActivityLogin, entries[0].Action)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	env := newTestEnv(t)
	env.seedAlpha(t)
	ctx := context.Background()

	_, wrongPassword := env.auth.Login(ctx, model.LoginRequest{Email: "leader@x.com", Password: "nope-nope"})
	_, unknownEmail := env.auth.Login(ctx, model.LoginRequest{Email: "ghost@x.com", Password: testPassword})
	_, empty := env.auth.Login(ctx, model.LoginRequest{})

	for _, err := range []error{wrongPassword, unknownEmail, empty} {
		requireAPICode(t, err, apierror.CodeInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), err.Error())
	}
}

func enableTwoFactor(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	ctx := context.Background()

	setup, err := env.auth.EnableTwoFactor(ctx, userID)
	require.NoError(t, err)

	code, err := security.CodeAt(setup.Secret, time.Now())
	require.NoError(t, err)
	confirmed, err := env.auth.ConfirmTwoFactor(ctx, userID, code)
	require.NoError(t, err)
	require.True(t, confirmed.Enabled)
	return setup.Secret
}

func TestTwoFactorLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	_, leader, member := env.seedAlpha(t)
	ctx := context.Background()
	secret := enableTwoFactor(t, env, leader.ID)

	resp, err := env.auth.Login(ctx, model.LoginRequest{Email: "leader@x.com", Password: testPassword})
	require.NoError(t, err)
	require.True(t, resp.RequireTwoFactor)
	require.NotEmpty(t, resp.TempToken)
	assert.Empty(t, resp.Token)
	assert.Empty(t, resp.RefreshToken)
	assert.True(t, resp.User.TwoFactorEnabled)

	caller, err := env.tokens.ValidateAccessToken(resp.TempToken)
	require.NoError(t, err)
	require.True(t, caller.TwoFactorPending)

	t.Run("wrong code", func(t *testing.T) {
		_, err := env.auth.VerifyTwoFactor(ctx, caller, model.VerifyTwoFactorRequest{UserID: leader.ID, Code: "12a456"})
		requireAPICode(t, err, apierror.CodeInvalidCode)
	})

	t.Run("user id mismatch", func(t *testing.T) {
		code, err := security.CodeAt(secret, time.Now())
		require.NoError(t, err)
		_, err = env.auth.VerifyTwoFactor(ctx, caller, model.VerifyTwoFactorRequest{UserID: member.ID, Code: code})
		requireAPICode(t, err, apierror.CodeForbidden)
	})

	t.Run("valid code", func(t *testing.T) {
		code, err := security.CodeAt(secret, time.Now())
		require.NoError(t, err)
		verified, err := env.auth.VerifyTwoFactor(ctx, caller, model.VerifyTwoFactorRequest{Code: code})
		require.NoError(t, err)
		require.True(t, verified.Verified)

		claims, err := env.tokens.ValidateAccessToken(verified.Token)
		require.NoError(t, err)
		assert.False(t, claims.TwoFactorPending)
		assert.Equal(t, leader.ID, claims.UserID)

		entries, err := env.activity.ListByUser(ctx, leader.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, model.ActivityTwoFactorAuth, entries[0].Action)
	})
}

func TestTwoFactorEnrollment(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	_, err := env.auth.ConfirmTwoFactor(ctx, leader.ID, "123456")
	requireAPICode(t, err, apierror.CodeBadRequest)

	setup, err := env.auth.EnableTwoFactor(ctx, leader.ID)
	require.NoError(t, err)
	assert.Len(t, setup.Secret, 32)
	assert.True(t, strings.HasPrefix(setup.QRCodeURL, "data:image/png;base64,"))

	pending, err := env.users.FindByID(ctx, leader.ID)
	require.NoError(t, err)
	assert.False(t, pending.TwoFactorEnabled)
	assert.Equal(t, setup.Secret, pending.TwoFactorSecret)

	// Login still completes in one step until the secret is confirmed.
	resp, err := env.auth.Login(ctx, model.LoginRequest{Email: leader.Email, Password: testPassword})
	require.NoError(t, err)
	assert.False(t, resp.RequireTwoFactor)

	code, err := security.CodeAt(setup.Secret, time.Now())
	require.NoError(t, err)
	_, err = env.auth.ConfirmTwoFactor(ctx, leader.ID, code)
	require.NoError(t, err)

	_, err = env.auth.EnableTwoFactor(ctx, leader.ID)
	requireAPICode(t, err, apierror.CodeBadRequest)

	code, err = security.CodeAt(setup.Secret, time.Now())
	require.NoError(t, err)
	disabled, err := env.auth.DisableTwoFactor(ctx, leader.ID, code)
	require.NoError(t, err)
	assert.True(t, disabled.Success)

	stored, err := env.users.FindByID(ctx, leader.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)

	_, err = env.auth.DisableTwoFactor(ctx, leader.ID, code)
	requireAPICode(t, err, apierror.CodeBadRequest)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	_, err := env.auth.ChangePassword(ctx, leader.ID, model.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "short"})
	requireAPICode(t, err, apierror.CodeValidation)

	_, err = env.auth.ChangePassword(ctx, leader.ID, model.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "Aa1" + strings.Repeat("x", 80)})
	requireAPICode(t, err, apierror.CodeValidation)

	_, err = env.auth.ChangePassword(ctx, leader.ID, model.ChangePasswordRequest{CurrentPassword: "wrong-pass1", NewPassword: "N3wPassword!"})
	requireAPICode(t, err, apierror.CodeInvalidCredentials)

	_, err = env.auth.ChangePassword(ctx, leader.ID, model.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "N3wPassword!"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, model.LoginRequest{Email: leader.Email, Password: testPassword})
	requireAPICode(t, err, apierror.CodeInvalidCredentials)
	_, err = env.auth.Login(ctx, model.LoginRequest{Email: leader.Email, Password: "N3wPassword!"})
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	var link string
	env.mailer.On("SendPasswordReset", mock.Anything, leader.Email, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Once()

	unknown := env.auth.RequestPasswordReset(ctx, "ghost@x.com")
	known := env.auth.RequestPasswordReset(ctx, leader.Email)
	assert.Equal(t, unknown, known)
	assert.True(t, known.Success)
	env.mailer.AssertExpectations(t)

	prefix := "https://clans.example.com/reset-password?token="
	require.True(t, strings.HasPrefix(link, prefix), link)
	token := strings.TrimPrefix(link, prefix)

	_, err := env.auth.ResetPassword(ctx, model.ResetPasswordRequest{Token: token, NewPassword: "weak"})
	requireAPICode(t, err, apierror.CodeValidation)

	_, err = env.auth.ResetPassword(ctx, model.ResetPasswordRequest{Token: "garbage", NewPassword: "N3wPassword!"})
	requireAPICode(t, err, apierror.CodeBadRequest)

	pair, err := env.tokens.IssuePair(leader)
	require.NoError(t, err)
	_, err = env.auth.ResetPassword(ctx, model.ResetPasswordRequest{Token: pair.AccessToken, NewPassword: "N3wPassword!"})
	requireAPICode(t, err, apierror.CodeBadRequest)

	_, err = env.auth.ResetPassword(ctx, model.ResetPasswordRequest{Token: token, NewPassword: "N3wPassword!"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, model.LoginRequest{Email: leader.Email, Password: "N3wPassword!"})
	require.NoError(t, err)
}

func TestRequestPasswordResetSwallowsMailFailure(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)

	env.mailer.On("SendPasswordReset", mock.Anything, leader.Email, mock.Anything).Return(errors.New("smtp down"))

	resp := env.auth.RequestPasswordReset(context.Background(), leader.Email)
	assert.True(t, resp.Success)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	pair, err := env.tokens.IssuePair(leader)
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, pair.AccessToken)
	requireAPICode(t, err, apierror.CodeBadRequest)
	_, err = env.auth.Refresh(ctx, "not-a-token")
	requireAPICode(t, err, apierror.CodeBadRequest)

	// Role changes are picked up because the pair is built from the stored user.
	leader.Role = model.RoleClanMember
	require.NoError(t, env.users.Update(ctx, leader))

	fresh, err := env.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := env.tokens.ValidateAccessToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClanMember, claims.Role)

	require.NoError(t, env.users.Delete(ctx, leader.ID))
	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	requireAPICode(t, err, apierror.CodeUnauthorized)
}

func TestRegisterClanLeader(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, member := env.seedAlpha(t)
	ctx := context.Background()

	req := model.RegisterLeaderRequest{ClanID: "Alpha_01", Email: "new.leader@x.com", InitialMemberCount: 10}

	t.Run("requires super admin", func(t *testing.T) {
		_, err := env.auth.RegisterClanLeader(ctx, claimsFor(leader), req)
		requireAPICode(t, err, apierror.CodeForbidden)
	})

	t.Run("unknown clan", func(t *testing.T) {
		bad := req
		bad.ClanID = "Nope_99"
		_, err := env.auth.RegisterClanLeader(ctx, claimsFor(admin), bad)
		requireAPICode(t, err, apierror.CodeBadRequest)
	})

	t.Run("email taken", func(t *testing.T) {
		bad := req
		bad.Email = member.Email
		_, err := env.auth.RegisterClanLeader(ctx, claimsFor(admin), bad)
		requireAPICode(t, err, apierror.CodeConflict)
	})

	t.Run("member count out of range", func(t *testing.T) {
		bad := req
		bad.InitialMemberCount = 51
		_, err := env.auth.RegisterClanLeader(ctx, claimsFor(admin), bad)
		requireAPICode(t, err, apierror.CodeValidation)
	})

	t.Run("mail failure stores nothing", func(t *testing.T) {
		env.mailer.On("SendLeaderActivation", mock.Anything, req.Email, mock.AnythingOfType("mail.ActivationMail")).
			Return(errors.New("smtp down")).Once()

		_, err := env.auth.RegisterClanLeader(ctx, claimsFor(admin), req)
		require.Error(t, err)

		taken, err := env.users.ExistsByEmail(ctx, req.Email)
		require.NoError(t, err)
		assert.False(t, taken)
		clan, err := env.clans.FindByID(ctx, "Alpha_01")
		require.NoError(t, err)
		assert.Equal(t, leader.ID, clan.LeaderID)
	})

	t.Run("creates leader and mails activation", func(t *testing.T) {
		var sent mail.ActivationMail
		env.mailer.On("SendLeaderActivation", mock.Anything, req.Email, mock.AnythingOfType("mail.ActivationMail")).
			Run(func(args mock.Arguments) { sent = args.Get(2).(mail.ActivationMail) }).
			Return(nil).Once()

		resp, err := env.auth.RegisterClanLeader(ctx, claimsFor(admin), req)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		env.mailer.AssertExpectations(t)

		assert.Equal(t, "Alpha_01", sent.ClanID)
		assert.Len(t, sent.TemporaryPassword, 12)
		assert.True(t, strings.HasPrefix(sent.ActivationLink, "https://clans.example.com/activate?token="))

		created, err := env.users.FindByEmail(ctx, req.Email)
		require.NoError(t, err)
		assert.Equal(t, model.RoleClanLeader, created.Role)
		assert.Equal(t, "Alpha_01", created.ClanID)

		clan, err := env.clans.FindByID(ctx, "Alpha_01")
		require.NoError(t, err)
		assert.Equal(t, created.ID, clan.LeaderID)

		previous, err := env.users.FindByID(ctx, leader.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleClanMember, previous.Role)

		_, err = env.auth.Login(ctx, model.LoginRequest{Email: req.Email, Password: sent.TemporaryPassword})
		require.NoError(t, err)

		entries, err := env.activity.ListByUser(ctx, admin.ID, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, model.ActivityLeaderCreated, entries[0].Action)
	})
}

func TestMeReportsDeletedUserAsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	ctx := context.Background()

	profile, err := env.auth.Me(ctx, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, leader.Email, profile.Email)

	require.NoError(t, env.users.Delete(ctx, leader.ID))
	_, err = env.auth.Me(ctx, leader.ID)
	requireAPICode(t, err, apierror.CodeUnauthorized)
}
