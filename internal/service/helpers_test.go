package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clan-manager/internal/mail"
	"clan-manager/internal/model"
	"clan-manager/internal/repository/memory"
	"clan-manager/internal/security"
	"clan-manager/pkg/apierror"
)

const testPassword = "Passw0rd!"

type testEnv struct {
	users         *memory.UserStore
	clans         *memory.ClanStore
	tasks         *memory.TaskStore
	announcements *memory.AnnouncementStore
	activity      *memory.ActivityStore
	hasher        *security.PasswordHasher
	tokens        *security.TokenIssuer
	totp          *security.TOTP
	mailer        *mail.MockMailer
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := security.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		users:         memory.NewUserStore(),
		clans:         memory.NewClanStore(),
		tasks:         memory.NewTaskStore(),
		announcements: memory.NewAnnouncementStore(),
		activity:      memory.NewActivityStore(),
		hasher:        security.NewPasswordHasher(security.MinBcryptCost),
		tokens:        tokens,
		totp:          security.NewTOTP("Clan Manager"),
		mailer:        &mail.MockMailer{},
	}
	env.auth = NewAuthService(
		AuthOptions{FrontendURL: "https://clans.example.com/"},
		env.users, env.clans, env.hasher, env.tokens, env.totp, env.mailer,
		NewActivityService(env.activity),
	)
	return env
}

func (e *testEnv) addUser(t *testing.T, id string, email string, role model.Role, clanID string) model.User {
	t.Helper()

	hash, err := e.hasher.Hash(testPassword)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := model.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Username:     id,
		Role:         role,
		ClanID:       clanID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) addClan(t *testing.T, id string, leaderID string, active bool) model.Clan {
	t.Helper()

	now := time.Now().UTC()
	c := model.Clan{
		ID:          id,
		Name:        id,
		LeaderID:    leaderID,
		MemberLimit: model.DefaultMemberLimit,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !active {
		c.ActivationCode = "CODE-" + id
	}
	require.NoError(t, e.clans.Create(context.Background(), c))
	return c
}

// seedAlpha creates an admin, the Alpha_01 clan with its leader and one
// member, and an empty Beta_02 clan.
func (e *testEnv) seedAlpha(t *testing.T) (admin, leader, member model.User) {
	t.Helper()

	admin = e.addUser(t, "admin", "admin@x.com", model.RoleSuperAdmin, "")
	leader = e.addUser(t, "leader", "leader@x.com", model.RoleClanLeader, "Alpha_01")
	member = e.addUser(t, "member", "member@x.com", model.RoleClanMember, "Alpha_01")
	e.addUser(t, "beta-leader", "beta@x.com", model.RoleClanLeader, "Beta_02")
	e.addClan(t, "Alpha_01", leader.ID, true)
	e.addClan(t, "Beta_02", "beta-leader", true)
	return admin, leader, member
}

func claimsFor(u model.User) *model.AuthClaims {
	return &model.AuthClaims{UserID: u.ID, Email: u.Email, Role: u.Role, ClanID: u.ClanID}
}

func requireAPICode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code, apiErr.Message)
}
