package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

var clanIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

func validateClanID(id string) error {
	if !clanIDPattern.MatchString(id) {
		return apierror.Validation("clan id may only contain letters, digits, '_' and '-' (max 20)", "clanId")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierror.Validation("email is invalid", "email")
	}
	return nil
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

func requireCaller(caller *model.AuthClaims) error {
	if caller == nil || caller.UserID == "" {
		return apierror.Unauthorized("authentication required")
	}
	return nil
}

// scopeToCaller returns the clan a non-admin caller is limited to, or the
// requested clan for super admins.
func scopeToCaller(caller *model.AuthClaims, requested string) (string, error) {
	if caller.IsSuperAdmin() {
		return requested, nil
	}
	if caller.ClanID == "" {
		return "", apierror.Forbidden("you are not a member of any clan")
	}
	if requested != "" && requested != caller.ClanID {
		return "", apierror.Forbidden("you can only access your own clan")
	}
	return caller.ClanID, nil
}

func findUser(ctx context.Context, users UserStore, id string) (model.User, error) {
	user, err := users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	return user, err
}

func findClan(ctx context.Context, clans ClanStore, id string) (model.Clan, error) {
	clan, err := clans.FindByID(ctx, id)
	if errors.Is(err, model.ErrClanNotFound) {
		return model.Clan{}, apierror.NotFound("clan not found", id)
	}
	return clan, err
}
