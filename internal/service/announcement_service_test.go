package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

func TestAnnouncementLeaderScope(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, member := env.seedAlpha(t)
	svc := NewAnnouncementService(env.announcements, env.clans)
	ctx := context.Background()

	a, err := svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{Title: "War", Content: "Saturday"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha_01", a.ClanID)
	assert.Equal(t, leader.ID, a.AuthorID)

	_, err = svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{Title: "War", Content: "x", ClanID: "Beta_02"})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Create(ctx, claimsFor(member), model.CreateAnnouncementRequest{Title: "War", Content: "x"})
	requireAPICode(t, err, apierror.CodeForbidden)

	_, err = svc.Update(ctx, claimsFor(leader), a.ID, model.UpdateAnnouncementRequest{ClanID: ptr("Beta_02")})
	requireAPICode(t, err, apierror.CodeForbidden)

	global, err := svc.Create(ctx, claimsFor(admin), model.CreateAnnouncementRequest{Title: "Patch", Content: "notes"})
	require.NoError(t, err)
	assert.Empty(t, global.ClanID)

	err = svc.Delete(ctx, claimsFor(leader), global.ID)
	requireAPICode(t, err, apierror.CodeForbidden)

	require.NoError(t, svc.Delete(ctx, claimsFor(leader), a.ID))
}

func TestAnnouncementPinCapPerScope(t *testing.T) {
	env := newTestEnv(t)
	admin, leader, _ := env.seedAlpha(t)
	svc := NewAnnouncementService(env.announcements, env.clans)
	ctx := context.Background()

	for i := 0; i < model.MaxPinnedPerScope; i++ {
		_, err := svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{
			Title: fmt.Sprintf("pinned %d", i), Content: "c", IsPinned: true,
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{Title: "one more", Content: "c", IsPinned: true})
	requireAPICode(t, err, apierror.CodePinnedLimit)

	// The global scope is counted separately.
	global, err := svc.Create(ctx, claimsFor(admin), model.CreateAnnouncementRequest{Title: "global", Content: "c", IsPinned: true})
	require.NoError(t, err)

	unpinned, err := svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{Title: "plain", Content: "c"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, claimsFor(leader), unpinned.ID, model.UpdateAnnouncementRequest{IsPinned: ptr(true)})
	requireAPICode(t, err, apierror.CodePinnedLimit)

	// Moving a pinned announcement into a full scope is rejected too.
	_, err = svc.Update(ctx, claimsFor(admin), global.ID, model.UpdateAnnouncementRequest{ClanID: ptr("Alpha_01")})
	requireAPICode(t, err, apierror.CodePinnedLimit)

	pinned, err := svc.Pinned(ctx, "Alpha_01")
	require.NoError(t, err)
	assert.Len(t, pinned, model.MaxPinnedPerScope)
}

func TestAnnouncementQueries(t *testing.T) {
	env := newTestEnv(t)
	_, leader, _ := env.seedAlpha(t)
	svc := NewAnnouncementService(env.announcements, env.clans)
	ctx := context.Background()

	a, err := svc.Create(ctx, claimsFor(leader), model.CreateAnnouncementRequest{Title: "Guild war", Content: "Bring potions"})
	require.NoError(t, err)

	viewed, err := svc.View(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), viewed.ViewCount)

	found, err := svc.Search(ctx, "POTIONS", "")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = svc.Search(ctx, "  ", "")
	requireAPICode(t, err, apierror.CodeBadRequest)

	now := time.Now().UTC()
	month, err := svc.ByMonth(ctx, now.Year(), int(now.Month()), "Alpha_01")
	require.NoError(t, err)
	assert.Len(t, month, 1)

	_, err = svc.ByMonth(ctx, now.Year(), 13, "")
	requireAPICode(t, err, apierror.CodeValidation)

	_, err = svc.Get(ctx, "missing")
	requireAPICode(t, err, apierror.CodeNotFound)
}
