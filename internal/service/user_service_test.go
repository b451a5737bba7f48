package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

func TestUserCreateByLeaderJoinsLeadersClan(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, _ := env.seedAlpha(t)
	svc := NewUserService(env.users, env.clans, env.hasher)
	ctx := context.Background()

	created, err := svc.Create(ctx, claimsFor(leader), model.CreateUserRequest{Email: "fresh@x.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClanMember, created.Role)
	require.NotNil(t, created.ClanID)
	assert.Equal(t, "Alpha_01", *created.ClanID)
	assert.Equal(t, "fresh", created.Username)

	_, err = svc.Create(ctx, claimsFor(leader), model.CreateUserRequest{Email: "boss@x.com", Password: testPassword, Role: "super_admin"})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Create(ctx, claimsFor(leader), model.CreateUserRequest{Email: "b@x.com", Password: testPassword, ClanID: ptr("Beta_02")})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Create(ctx, claimsFor(admin), model.CreateUserRequest{Email: "fresh@x.com", Password: testPassword})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	_, err = svc.Create(ctx, claimsFor(admin), model.CreateUserRequest{Email: "weak@x.com", Password: "short"})
	requireAPICode(t, err, apierror.CodeValidation)
}

func TestUserUpdateScoping(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, member := env.seedAlpha(t)
	svc := NewUserService(env.users, env.clans, env.hasher)
	ctx := context.Background()

	_, err := svc.Update(ctx, claimsFor(leader), member.ID, model.UpdateUserRequest{ClanID: ptr("Beta_02")})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Update(ctx, claimsFor(leader), member.ID, model.UpdateUserRequest{Role: ptr("clan_leader")})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Update(ctx, claimsFor(leader), "beta-leader", model.UpdateUserRequest{Username: ptr("x")})
	requireAPICode(t, err, apierror.CodeForbidden)

	renamed, err := svc.Update(ctx, claimsFor(leader), member.ID, model.UpdateUserRequest{Username: ptr("scout")})
	require.NoError(t, err)
	assert.Equal(t, "scout", renamed.Username)

	moved, err := svc.Update(ctx, claimsFor(admin), member.ID, model.UpdateUserRequest{ClanID: ptr("Beta_02")})
	require.NoError(t, err)
	require.NotNil(t, moved.ClanID)
	assert.Equal(t, "Beta_02", *moved.ClanID)

	_, err = svc.Update(ctx, claimsFor(admin), leader.ID, model.UpdateUserRequest{Role: ptr("clan_member")})
	requireAPICode(t, err, apierror.CodeConflict)
}

func TestUserServiceRefusesLeaderRole(t *testing.T) {
	env := newTestEnv(t)
	admin, _, member := env.seedAlpha(t)
	svc := NewUserService(env.users, env.clans, env.hasher)
	ctx := context.Background()

	_, err := svc.Create(ctx, claimsFor(admin), model.CreateUserRequest{
		Email: "second@x.com", Password: testPassword, Role: "clan_leader", ClanID: ptr("Alpha_01"),
	})
	requireAPICode(t, err, apierror.CodeValidation)

	_, err = svc.Update(ctx, claimsFor(admin), member.ID, model.UpdateUserRequest{Role: ptr("clan_leader")})
	requireAPICode(t, err, apierror.CodeValidation)

	members, err := env.users.ListByClan(ctx, "Alpha_01")
	require.NoError(t, err)
	leaders := 0
	for _, m := range members {
		if m.Role == model.RoleClanLeader {
			leaders++
		}
	}
	assert.Equal(t, 1, leaders)
}

func TestUserDeleteAndStats(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, member := env.seedAlpha(t)
	svc := NewUserService(env.users, env.clans, env.hasher)
	ctx := context.Background()

	requireAPICode(t, svc.Delete(ctx, claimsFor(leader), leader.ID), apierror.CodeForbidden)
	requireAPICode(t, svc.Delete(ctx, claimsFor(admin), leader.ID), apierror.CodeConflict)

	updated, err := svc.UpdatePower(ctx, claimsFor(leader), member.ID, 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Power)

	updated, err = svc.UpdateKills(ctx, claimsFor(leader), member.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), updated.WeeklyKills)

	_, err = svc.UpdatePower(ctx, claimsFor(leader), member.ID, -1)
	requireAPICode(t, err, apierror.CodeValidation)

	// Stats updates must not disturb the stored password.
	stored, err := env.users.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, env.hasher.Matches(stored.PasswordHash, testPassword))

	list, err := svc.ListByClan(ctx, claimsFor(leader), "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListByClan(ctx, claimsFor(leader), "Beta_02")
	requireAPICode(t, err, apierror.CodeForbidden)

	require.NoError(t, svc.Delete(ctx, claimsFor(leader), member.ID))
	_, err = svc.Get(ctx, claimsFor(admin), member.ID)
	requireAPICode(t, err, apierror.CodeNotFound)
}
